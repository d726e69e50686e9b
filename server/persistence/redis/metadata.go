package redis

import (
	"context"
	"errors"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/cjbester78/h2h/server/util"
	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

const ADAPTER_DEF string = "ADAPTER"
const FLOW_DEF string = "FLOW"

var _ persistence.MetadataStorage = new(redisMetadataStorage)

type redisMetadataStorage struct {
	*baseDao
	adapterEncDec util.EncoderDecoder[model.Adapter]
	flowEncDec    util.EncoderDecoder[model.Flow]
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:       newBaseDao(conf),
		adapterEncDec: util.NewJsonEncoderDecoder[model.Adapter](),
		flowEncDec:    util.NewJsonEncoderDecoder[model.Flow](),
	}
}

func (ms *redisMetadataStorage) SaveAdapter(a model.Adapter) error {
	data, err := ms.adapterEncDec.Encode(a)
	if err != nil {
		return err
	}
	key := ms.getNamespaceKey(ADAPTER_DEF)
	ctx := context.Background()
	if err := ms.redisClient.HSet(ctx, key, a.Id, string(data)).Err(); err != nil {
		logger.Error("error saving adapter", zap.String("adapter", a.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (ms *redisMetadataStorage) DeleteAdapter(id string) error {
	key := ms.getNamespaceKey(ADAPTER_DEF)
	if err := ms.redisClient.HDel(context.Background(), key, id).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (ms *redisMetadataStorage) GetAdapter(id string) (*model.Adapter, error) {
	key := ms.getNamespaceKey(ADAPTER_DEF)
	val, err := ms.redisClient.HGet(context.Background(), key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return ms.adapterEncDec.Decode([]byte(val))
}

func (ms *redisMetadataStorage) ListAdapters() ([]model.Adapter, error) {
	key := ms.getNamespaceKey(ADAPTER_DEF)
	vals, err := ms.redisClient.HGetAll(context.Background(), key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.Adapter, 0, len(vals))
	for _, v := range vals {
		a, err := ms.adapterEncDec.Decode([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (ms *redisMetadataStorage) SaveFlow(f model.Flow) error {
	data, err := ms.flowEncDec.Encode(f)
	if err != nil {
		return err
	}
	key := ms.getNamespaceKey(FLOW_DEF)
	if err := ms.redisClient.HSet(context.Background(), key, f.Id, string(data)).Err(); err != nil {
		logger.Error("error saving flow", zap.String("flow", f.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (ms *redisMetadataStorage) DeleteFlow(id string) error {
	key := ms.getNamespaceKey(FLOW_DEF)
	if err := ms.redisClient.HDel(context.Background(), key, id).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (ms *redisMetadataStorage) GetFlow(id string) (*model.Flow, error) {
	key := ms.getNamespaceKey(FLOW_DEF)
	val, err := ms.redisClient.HGet(context.Background(), key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return ms.flowEncDec.Decode([]byte(val))
}

func (ms *redisMetadataStorage) ListFlows() ([]model.Flow, error) {
	key := ms.getNamespaceKey(FLOW_DEF)
	vals, err := ms.redisClient.HGetAll(context.Background(), key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.Flow, 0, len(vals))
	for _, v := range vals {
		f, err := ms.flowEncDec.Decode([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}
