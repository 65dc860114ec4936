package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/beacon/internal/contexts"
	"github.com/solatis/beacon/internal/core/api"
	"github.com/solatis/beacon/internal/core/auth"
	"github.com/solatis/beacon/internal/core/config"
	"github.com/solatis/beacon/internal/rules"
	"github.com/solatis/beacon/internal/types"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type harness struct {
	client *api.InspectorClient
	health grpc_health_v1.HealthClient
	key    string
}

func startServer(t *testing.T, registry *contexts.GlobalContexts) harness {
	t.Helper()

	service, err := api.NewInspectorService(registry, nil)
	require.NoError(t, err)

	cfg := config.DefaultConfig().Inspector
	srv, err := NewGRPCServer(&cfg, service, auth.NewAuthenticator(testSecret), nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	key, err := auth.IssueAPIKey(testSecret)
	require.NoError(t, err)

	return harness{
		client: api.NewInspectorClient(conn),
		health: grpc_health_v1.NewHealthClient(conn),
		key:    key,
	}
}

func (h harness) authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "x-api-key", h.key)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestInspector_MatchRule(t *testing.T) {
	h := startServer(t, contexts.NewGlobalContexts(nil))

	resp, err := h.client.MatchRule(h.authed(), mustStruct(t, map[string]any{
		"rule":   "iglu:com.acme.*/*/jsonschema/1-*-*",
		"schema": "iglu:com.acme.shop/cart/jsonschema/1-0-2",
	}))
	require.NoError(t, err)
	got := resp.AsMap()
	assert.Equal(t, true, got["matched"])
	assert.Equal(t, true, got["valid_rule"])
	assert.Equal(t, true, got["valid_schema"])

	resp, err = h.client.MatchRule(h.authed(), mustStruct(t, map[string]any{
		"rule_set": map[string]any{
			"accept": "iglu:com.acme/*/jsonschema/*-*-*",
			"reject": []any{"iglu:com.acme/page_ping/jsonschema/*-*-*"},
		},
		"schema": "iglu:com.acme/page_ping/jsonschema/1-0-0",
	}))
	require.NoError(t, err)
	assert.Equal(t, false, resp.AsMap()["matched"], "reject wins over accept")

	resp, err = h.client.MatchRule(h.authed(), mustStruct(t, map[string]any{
		"rule":   "iglu:com.*.acme/*/jsonschema/*-*-*",
		"schema": "iglu:com.x.acme/a/jsonschema/1-0-0",
	}))
	require.NoError(t, err)
	assert.Equal(t, false, resp.AsMap()["valid_rule"])
	assert.Equal(t, false, resp.AsMap()["matched"])

	_, err = h.client.MatchRule(h.authed(), mustStruct(t, map[string]any{"rule": "x"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestInspector_ApplicableContexts(t *testing.T) {
	registry := contexts.NewGlobalContexts(nil)
	rs, err := rules.NewRuleSet([]string{"iglu:com.acme/*/jsonschema/*-*-*"}, nil)
	require.NoError(t, err)

	geo := types.SelfDescribingJSON{Schema: "iglu:com.acme/geo/jsonschema/1-0-0", Data: map[string]any{"lat": 1.5}}
	user := types.SelfDescribingJSON{Schema: "iglu:com.acme/user/jsonschema/1-0-0", Data: map[string]any{"id": "u-1"}}
	registry.AddGlobalContexts(geo, contexts.RuleSetProvider(rs, contexts.Static(user)))

	h := startServer(t, registry)

	resp, err := h.client.ApplicableContexts(h.authed(), mustStruct(t, map[string]any{
		"event_type": "ue",
		"schema":     "iglu:com.acme/link_click/jsonschema/1-0-0",
	}))
	require.NoError(t, err)

	list, ok := resp.AsMap()["contexts"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, geo.Schema, list[0].(map[string]any)["sc"])
	assert.Equal(t, user.Schema, list[1].(map[string]any)["sc"])

	resp, err = h.client.ApplicableContexts(h.authed(), mustStruct(t, map[string]any{"event_type": "pv"}))
	require.NoError(t, err)
	assert.Len(t, resp.AsMap()["contexts"], 1)
}

func TestInspector_RequiresAPIKey(t *testing.T) {
	h := startServer(t, contexts.NewGlobalContexts(nil))

	_, err := h.client.MatchRule(context.Background(), mustStruct(t, map[string]any{"rule": "r", "schema": "s"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", "bk-v1-bad-key")
	_, err = h.client.MatchRule(ctx, mustStruct(t, map[string]any{"rule": "r", "schema": "s"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := startServer(t, contexts.NewGlobalContexts(nil))

	resp, err := h.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestNewGRPCServer_RequiresDependencies(t *testing.T) {
	cfg := config.DefaultConfig().Inspector
	service, err := api.NewInspectorService(contexts.NewGlobalContexts(nil), nil)
	require.NoError(t, err)

	_, err = NewGRPCServer(nil, service, auth.NewAuthenticator(testSecret), nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(&cfg, nil, auth.NewAuthenticator(testSecret), nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(&cfg, service, nil, nil)
	assert.Error(t, err)
}
