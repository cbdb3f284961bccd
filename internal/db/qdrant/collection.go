package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/polysearch/internal/db"
)

// CollectionExists reports whether the named collection exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, &db.Error{Op: db.OpCollectionExists, Err: err}
	}
	return exists, nil
}

// CreateCollection creates a single unnamed dense vector collection.
func (s *Store) CreateCollection(ctx context.Context, spec db.CollectionSpec) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: toDistance(spec.Distance),
		}),
	})
	if err != nil {
		if isCode(err, codes.AlreadyExists) {
			return db.ErrCollectionExists
		}
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}

// CollectionDimension returns the vector size of the collection's unnamed vector.
// Collections with named vectors report 0.
func (s *Store) CollectionDimension(ctx context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		if isCode(err, codes.NotFound) {
			return 0, db.ErrCollectionNotFound
		}
		return 0, &db.Error{Op: db.OpCollectionInfo, Err: err}
	}
	return int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()), nil
}

// DeleteCollection deletes a collection and all its points.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.DeleteCollection(ctx, name); err != nil {
		if isCode(err, codes.NotFound) {
			return nil
		}
		return &db.Error{Op: db.OpDeleteCollection, Err: err}
	}
	return nil
}

func toDistance(d db.DistanceMetric) qdrant.Distance {
	switch d {
	case db.DistanceL2:
		return qdrant.Distance_Euclid
	case db.DistanceIP:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func isCode(err error, code codes.Code) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == code
}
