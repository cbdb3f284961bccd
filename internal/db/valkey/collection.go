package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/polysearch/internal/db"
)

// Hash fields of the per-collection metadata key.
const (
	metaDimension = "dimension"
	metaDistance  = "distance"
)

// Schema field names inside each document hash.
const (
	vectorField = "vector"
	sourceField = "source"
	scoreField  = "__vector_score"
)

func (s *Store) indexName(collection string) string { return s.prefix + collection + ":idx" }
func (s *Store) metaKey(collection string) string   { return s.prefix + collection + ":meta" }
func (s *Store) docPrefix(collection string) string { return s.prefix + collection + ":doc:" }

// CollectionExists probes the collection index via FT.INFO; "unknown index name" means absent.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.indexName(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// CreateCollection creates the FT index and records the collection metadata.
func (s *Store) CreateCollection(ctx context.Context, spec db.CollectionSpec) error {
	def, err := db.NewIndex(s.indexName(spec.Name)).
		Prefix(s.docPrefix(spec.Name)).
		VectorHNSW(vectorField, spec.Dimension, spec.Distance, s.m, s.ef).
		Tag(sourceField).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrCollectionExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	distance := spec.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	meta := s.b().Hset().Key(s.metaKey(spec.Name)).FieldValue().
		FieldValue(metaDimension, strconv.Itoa(spec.Dimension)).
		FieldValue(metaDistance, string(distance)).
		Build()
	if err := s.do(ctx, meta).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// CollectionDimension reads the dimension recorded at creation time.
// A collection created outside this service has no metadata and reports 0.
func (s *Store) CollectionDimension(ctx context.Context, name string) (int, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, db.ErrCollectionNotFound
	}

	cmd := s.b().Hgetall().Key(s.metaKey(name)).Build()
	meta, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return 0, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	dim, err := strconv.Atoi(meta[metaDimension])
	if err != nil {
		return 0, nil
	}
	return dim, nil
}

// DeleteCollection drops the index, its document hashes and the metadata key.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.indexName(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil && !isRedisErr(err, "unknown index name") {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}

	keys, err := s.scan(ctx, s.docPrefix(name)+"*")
	if err != nil {
		return err
	}
	keys = append(keys, s.metaKey(name))

	for start := 0; start < len(keys); start += delBatch {
		end := min(start+delBatch, len(keys))
		del := s.b().Del().Key(keys[start:end]...).Build()
		if err := s.do(ctx, del).Error(); err != nil {
			return &db.Error{Op: db.OpDel, Err: err}
		}
	}
	return nil
}

const delBatch = 500

// scan iterates keys matching a pattern.
func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	switch f.Type {
	case db.IndexFieldTag:
		return []string{f.Name, "TAG"}, nil
	case db.IndexFieldVector:
		vectorArgs, err := buildVectorFieldArgs(f)
		if err != nil {
			return nil, err
		}
		return append([]string{f.Name}, vectorArgs...), nil
	default:
		return nil, errors.New("unknown field type")
	}
}

func buildVectorFieldArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = db.VectorHNSW
	}

	distance := f.VectorDistance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(distance),
	}

	if algo == db.VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	result = append(result, attrs...)

	return result, nil
}
