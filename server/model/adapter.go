package model

import "strings"

type AdapterType string

const ADAPTER_TYPE_FILE AdapterType = "FILE"
const ADAPTER_TYPE_SFTP AdapterType = "SFTP"
const ADAPTER_TYPE_EMAIL AdapterType = "EMAIL"

type AdapterDirection string

const DIRECTION_SENDER AdapterDirection = "SENDER"
const DIRECTION_RECEIVER AdapterDirection = "RECEIVER"

func ParseAdapterType(s string) AdapterType {
	return AdapterType(strings.ToUpper(strings.TrimSpace(s)))
}

func ParseAdapterDirection(s string) AdapterDirection {
	return AdapterDirection(strings.ToUpper(strings.TrimSpace(s)))
}

// AdapterConfig holds the connection parameters of one adapter. Keys are
// protocol specific; the executor for the adapter type interprets them.
type AdapterConfig map[string]string

func (c AdapterConfig) Get(key string) string {
	return c[key]
}

func (c AdapterConfig) GetDefault(key string, def string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return def
}

type Adapter struct {
	Id        string           `json:"id"`
	Name      string           `json:"name"`
	Type      AdapterType      `json:"type"`
	Direction AdapterDirection `json:"direction"`
	Active    bool             `json:"active"`
	Config    AdapterConfig    `json:"config"`
}
