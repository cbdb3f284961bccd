package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"

	"github.com/kailas-cloud/polysearch/internal/db"
)

// Upsert writes one point and waits until Qdrant reports it applied.
func (s *Store) Upsert(ctx context.Context, collection string, p db.Point) error {
	if p.ID == "" {
		return fmt.Errorf("point id is required")
	}
	payload, err := qdrant.TryValueMap(p.Payload)
	if err != nil {
		return fmt.Errorf("convert payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      pointID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}},
	})
	if err != nil {
		if isCode(err, codes.NotFound) {
			return db.ErrCollectionNotFound
		}
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	if st := res.GetStatus(); st != qdrant.UpdateStatus_Completed {
		return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("update not completed: %s", st)}
	}
	return nil
}

// Search returns the nearest points by the collection's distance, best first.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]db.ScoredPoint, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if isCode(err, codes.NotFound) {
			return nil, db.ErrCollectionNotFound
		}
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	points := make([]db.ScoredPoint, 0, len(res))
	for _, r := range res {
		points = append(points, db.ScoredPoint{
			ID:      extractPointID(r.GetId()),
			Score:   float64(r.GetScore()),
			Payload: extractPayload(r.GetPayload()),
		})
	}
	return points, nil
}

// pointID keeps numeric ids numeric; everything else must be a UUID.
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	return qdrant.NewIDUUID(id)
}

func extractPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func extractPayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = extractValue(v)
	}
	return out
}

func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return extractPayload(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = extractValue(item)
		}
		return list
	default:
		return nil
	}
}
