package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/polysearch/internal/db"
)

// Upsert writes the point as a single HSET. The command returns once the write is applied,
// and the search module indexes the hash synchronously with it.
func (s *Store) Upsert(ctx context.Context, collection string, p db.Point) error {
	if p.ID == "" {
		return fmt.Errorf("point id is required")
	}
	if len(p.Vector) == 0 {
		return fmt.Errorf("vector is required")
	}

	cmd := s.b().Hset().Key(s.docPrefix(collection)+p.ID).FieldValue().
		FieldValue(vectorField, vectorToBytes(p.Vector))
	for k, v := range p.Payload {
		if k == vectorField || k == scoreField {
			return fmt.Errorf("payload field %q is reserved", k)
		}
		cmd = cmd.FieldValue(k, formatValue(v))
	}

	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// Search runs a KNN vector similarity search via FT.SEARCH.
// Scores are cosine similarities derived from the returned cosine distance.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]db.ScoredPoint, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	k := strconv.Itoa(limit)
	args := []string{
		s.indexName(collection),
		fmt.Sprintf("*=>[KNN %d @%s $BLOB]", limit, vectorField),
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return nil, db.ErrCollectionNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	points, err := parseKNNResult(raw, s.docPrefix(collection))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Score > points[j].Score })
	if len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage, keyPrefix string) ([]db.ScoredPoint, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	points := make([]db.ScoredPoint, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		pairs := parseFieldPairs(fields)
		p := db.ScoredPoint{
			ID:      strings.TrimPrefix(key, keyPrefix),
			Payload: make(map[string]any, len(pairs)),
		}

		// Convert __vector_score (cosine distance) to similarity
		if scoreStr, ok := pairs[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				p.Score = 1.0 - d
			}
		}
		for name, value := range pairs {
			if name == scoreField || name == vectorField {
				continue
			}
			p.Payload[name] = value
		}

		points = append(points, p)
	}

	return points, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
