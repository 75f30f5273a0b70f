// Package server implements the gRPC swornref Reference service
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nainya/swornref/internal/logger"
	"github.com/nainya/swornref/internal/metrics"
	"github.com/nainya/swornref/pkg/breadcrumb"
	"github.com/nainya/swornref/pkg/identifier"
	"github.com/nainya/swornref/pkg/query"
	"github.com/nainya/swornref/pkg/registry"
)

const defaultSearchLimit = 25

// Server implements ReferenceServer over a loaded registry
type Server struct {
	reg     *registry.Registry
	engine  *query.Engine
	metrics *metrics.Metrics
	log     *logger.Logger

	startTime time.Time
}

// NewServer creates a server for reg
func NewServer(reg *registry.Registry, m *metrics.Metrics, log *logger.Logger) *Server {
	return &Server{
		reg:       reg,
		engine:    query.NewEngine(reg),
		metrics:   m,
		log:       log,
		startTime: time.Now(),
	}
}

// NewGRPCServer creates a grpc.Server with the metrics interceptors and the
// Reference service registered
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.UnaryInterceptor(GrpcMetricsInterceptor(s.metrics, s.log)),
		grpc.StreamInterceptor(GrpcStreamMetricsInterceptor(s.metrics, s.log)),
	)
	gs := grpc.NewServer(opts...)
	RegisterReferenceServer(gs, s)
	return gs
}

// Uptime returns how long the server has existed
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// toStatus maps registry errors to gRPC codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, identifier.ErrParse):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, breadcrumb.ErrUnknownContentType):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func requireIdentifier(req *wrapperspb.StringValue) (string, error) {
	if req.GetValue() == "" {
		return "", status.Error(codes.InvalidArgument, "identifier is required")
	}
	return req.GetValue(), nil
}

func (s *Server) lookup(op string, err error) {
	result := "hit"
	switch {
	case errors.Is(err, registry.ErrNotFound):
		result = "miss"
	case err != nil:
		result = "error"
	}
	s.metrics.RecordLookup(op, result)
}

// Get returns the node for an identifier as a struct
func (s *Server) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := requireIdentifier(req)
	if err != nil {
		return nil, err
	}

	node, err := s.reg.Get(id)
	s.lookup("get", err)
	if err != nil {
		return nil, toStatus(err)
	}

	fields, ok := node.Interface().(map[string]any)
	if !ok {
		return nil, status.Errorf(codes.Internal, "node %q is not a record", id)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode node %q: %v", id, err)
	}
	return out, nil
}

// ParentOf returns the nearest identified ancestor, or "" when there is none
func (s *Server) ParentOf(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	id, err := requireIdentifier(req)
	if err != nil {
		return nil, err
	}

	parent, ok := s.reg.ParentOf(id)
	result := "hit"
	if !ok {
		result = "miss"
	}
	s.metrics.RecordLookup("parent", result)
	return wrapperspb.String(parent), nil
}

// ChildrenOf lists the identifiers directly under id
func (s *Server) ChildrenOf(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	id, err := requireIdentifier(req)
	if err != nil {
		return nil, err
	}
	if !s.reg.Has(id) {
		err := &registry.NotFoundError{Identifier: id}
		s.lookup("children", err)
		return nil, toStatus(err)
	}
	s.lookup("children", nil)
	return stringListValue(s.reg.ChildrenOf(id)), nil
}

// Breadcrumbs returns the display chain for id, outermost first
func (s *Server) Breadcrumbs(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	id, err := requireIdentifier(req)
	if err != nil {
		return nil, err
	}

	crumbs, err := s.reg.Breadcrumbs(id)
	s.lookup("breadcrumbs", err)
	if err != nil {
		return nil, toStatus(err)
	}
	return stringListValue(crumbs), nil
}

// ParseIdentifier returns the parsed parts of an identifier
func (s *Server) ParseIdentifier(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	parsed, err := s.reg.ParseIdentifier(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	path := make([]any, len(parsed.Path))
	for i, p := range parsed.Path {
		path[i] = p
	}
	out, err := structpb.NewStruct(map[string]any{
		"raw":          parsed.Raw,
		"content_type": parsed.ContentType,
		"ruleset":      parsed.Ruleset,
		"category":     parsed.Category,
		"subcategory":  parsed.Subcategory,
		"path":         path,
		"suffix":       parsed.Suffix,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode parsed identifier: %v", err)
	}
	return out, nil
}

// RulesetNames returns the configured document names in order
func (s *Server) RulesetNames(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return stringListValue(s.reg.RulesetNames()), nil
}

// Search runs a term search over names, summaries and text
func (s *Server) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	q := query.NewQueryBuilder(req.GetValue()).Limit(defaultSearchLimit).Build()
	if len(q.Terms) == 0 {
		return nil, status.Error(codes.InvalidArgument, "search terms are required")
	}

	results := s.engine.Search(q)
	values := make([]*structpb.Value, 0, len(results))
	for _, r := range results {
		v, err := structpb.NewStruct(map[string]any{
			"identifier": r.Identifier,
			"name":       r.Name,
			"snippet":    r.Snippet,
			"score":      r.Score,
		})
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode result: %v", err)
		}
		values = append(values, structpb.NewStructValue(v))
	}
	return &structpb.ListValue{Values: values}, nil
}

// AllIdentifiers streams every identifier in index order
func (s *Server) AllIdentifiers(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ctx := stream.Context()
	for id := range s.reg.AllIdentifiers() {
		if err := ctx.Err(); err != nil {
			return status.FromContextError(err).Err()
		}
		if err := stream.Send(wrapperspb.String(id)); err != nil {
			s.log.GrpcLogger(Reference_AllIdentifiers_FullMethodName).Warn("Stream send failed").
				Str("identifier", id).Err(err).Send()
			return fmt.Errorf("send %q: %w", id, err)
		}
	}
	return nil
}

func stringListValue(items []string) *structpb.ListValue {
	values := make([]*structpb.Value, len(items))
	for i, item := range items {
		values[i] = structpb.NewStringValue(item)
	}
	return &structpb.ListValue{Values: values}
}
