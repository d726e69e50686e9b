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

const EXECUTION string = "EXECUTION"
const EXECUTION_INDEX string = "EXECUTION_IDX"

var _ persistence.ExecutionStorage = new(redisExecutionStorage)

type redisExecutionStorage struct {
	*baseDao
	encDec util.EncoderDecoder[model.FlowExecution]
}

func NewRedisExecutionStorage(conf Config) *redisExecutionStorage {
	return &redisExecutionStorage{
		baseDao: newBaseDao(conf),
		encDec:  util.NewJsonEncoderDecoder[model.FlowExecution](),
	}
}

func (es *redisExecutionStorage) save(e *model.FlowExecution) error {
	data, err := es.encDec.Encode(*e)
	if err != nil {
		return err
	}
	ctx := context.Background()
	key := es.getNamespaceKey(EXECUTION)
	if err := es.redisClient.HSet(ctx, key, e.Id, string(data)).Err(); err != nil {
		logger.Error("error saving execution", zap.String("executionId", e.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	idx := es.getNamespaceKey(EXECUTION_INDEX, e.FlowId)
	member := rd.Z{Score: float64(e.StartedAt.UnixMilli()), Member: e.Id}
	if err := es.redisClient.ZAdd(ctx, idx, member).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (es *redisExecutionStorage) CreateExecution(e *model.FlowExecution) error {
	return es.save(e)
}

func (es *redisExecutionStorage) UpdateExecution(e *model.FlowExecution) error {
	stored, err := es.GetExecution(e.Id)
	if err != nil {
		return err
	}
	if stored.Status.IsTerminal() {
		return persistence.ErrTerminalState
	}
	if stored.Status != e.Status && !stored.Status.CanTransitionTo(e.Status) {
		return persistence.ErrInvalidTransition
	}
	return es.save(e)
}

func (es *redisExecutionStorage) GetExecution(id string) (*model.FlowExecution, error) {
	key := es.getNamespaceKey(EXECUTION)
	val, err := es.redisClient.HGet(context.Background(), key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return es.encDec.Decode([]byte(val))
}

func (es *redisExecutionStorage) ListExecutions(flowId string, limit int) ([]model.FlowExecution, error) {
	ctx := context.Background()
	if limit <= 0 {
		limit = 100
	}
	var ids []string
	var err error
	if flowId != "" {
		idx := es.getNamespaceKey(EXECUTION_INDEX, flowId)
		ids, err = es.redisClient.ZRevRange(ctx, idx, 0, int64(limit-1)).Result()
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
	} else {
		ids, err = es.redisClient.HKeys(ctx, es.getNamespaceKey(EXECUTION)).Result()
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		if len(ids) > limit {
			ids = ids[:limit]
		}
	}
	out := make([]model.FlowExecution, 0, len(ids))
	for _, id := range ids {
		e, err := es.GetExecution(id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (es *redisExecutionStorage) CancelExecution(id string) error {
	e, err := es.GetExecution(id)
	if err != nil {
		return err
	}
	if e.Status.IsTerminal() {
		return persistence.ErrTerminalState
	}
	e.Status = model.EXECUTION_CANCELLED
	return es.save(e)
}
