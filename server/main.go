package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cjbester78/h2h/server/agent"
	"github.com/cjbester78/h2h/server/config"
	"github.com/cjbester78/h2h/server/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cli struct {
	cfg config.Config
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest and websocket endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of underline storage")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "h2h", "namespace used in storage")
	cmd.Flags().String("work-dir", "/tmp/h2h/work", "staging directory for file processing")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().Int("primary-pool-size", 8, "primary pool worker count")
	cmd.Flags().Int("adapter-pool-size", 8, "adapter pool worker count")
	cmd.Flags().Int("flow-pool-size", 4, "flow pool worker count")
	cmd.Flags().Int("monitoring-pool-size", 2, "monitoring pool worker count")
	cmd.Flags().Int("schedule-tick-seconds", 1, "schedule scan interval")
	cmd.Flags().Int64("max-schedule-delay-seconds", 86400, "largest schedule interval supported")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg = config.Default()
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.WorkDir = viper.GetString("work-dir")
	c.cfg.LogLevel = viper.GetString("log-level")
	c.cfg.Pools.PrimarySize = viper.GetInt("primary-pool-size")
	c.cfg.Pools.AdapterSize = viper.GetInt("adapter-pool-size")
	c.cfg.Pools.FlowSize = viper.GetInt("flow-pool-size")
	c.cfg.Pools.MonitoringSize = viper.GetInt("monitoring-pool-size")
	c.cfg.ScheduleTick = time.Duration(viper.GetInt("schedule-tick-seconds")) * time.Second
	c.cfg.MaxScheduleDelaySeconds = viper.GetInt64("max-schedule-delay-seconds")
	return logger.Configure(c.cfg.LogLevel)
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	a, err := agent.New(c.cfg)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return a.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "h2h",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
