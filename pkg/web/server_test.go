package web_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/metrics"
	"github.com/teslashibe/go-kiosk/pkg/store"
	"github.com/teslashibe/go-kiosk/pkg/tts"
	"github.com/teslashibe/go-kiosk/pkg/web"
)

type fixture struct {
	server *web.Server
	db     *store.SQLite
}

func newFixture(t *testing.T, opts ...web.Option) fixture {
	t.Helper()
	ctx := context.Background()

	db, err := store.NewSQLite(store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	_, err = store.Seed(ctx, db, catalog.Seed())
	require.NoError(t, err)

	engine := kiosk.NewEngine(nil, catalog.NewSnapshot(catalog.Seed()),
		kiosk.WithCartSaver(db),
		kiosk.WithPublisher(db),
	)
	base := []web.Option{
		web.WithMenu(db),
		web.WithCarts(db),
		web.WithOrders(db),
		web.WithAssistant(assistant.NewService(assistant.NewMock("새우버거를 추천드려요."), db, db)),
		web.WithTTS(tts.NewMock()),
	}
	srv := web.NewServer(":0", engine, kiosk.NewRegistry(time.Hour), append(base, opts...)...)
	return fixture{server: srv, db: db}
}

func (f fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["timestamp"])
}

func TestMenu(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["menus"], len(catalog.Seed()))

	status, body = f.do(t, http.MethodGet, "/api/menu/search?keyword=%EC%83%88%EC%9A%B0", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["menus"], 3)

	status, body = f.do(t, http.MethodGet, "/api/menu/search", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "keyword parameter required", body["error"])
}

func TestCart(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/api/cart/s1", nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, body["items"])
	require.EqualValues(t, 0, body["total"])

	status, _ = f.do(t, http.MethodPost, "/api/cart", map[string]any{
		"sessionId": "s1",
		"items": []map[string]any{
			{"id": "cola", "name": "콜라", "price": 2000, "quantity": 2},
		},
		"total": 999,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = f.do(t, http.MethodGet, "/api/cart/s1", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 4000, body["total"], "total is recomputed")

	status, _ = f.do(t, http.MethodPost, "/api/cart", map[string]any{"sessionId": "s1"})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = f.do(t, http.MethodPost, "/api/cart", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = f.do(t, http.MethodPost, "/api/cart", map[string]any{
		"sessionId": "s1",
		"items":     []map[string]any{{"id": "cola", "quantity": 0}},
	})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestVoiceOrder(t *testing.T) {
	f := newFixture(t)
	msgs := []map[string]string{{"role": "user", "content": "뭐가 맛있어요?"}}

	status, body := f.do(t, http.MethodPost, "/api/voice-order", map[string]any{"sessionId": "s1", "messages": msgs})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "새우버거를 추천드려요.", body["reply"])

	status, _ = f.do(t, http.MethodPost, "/api/voice-order", map[string]any{"messages": []any{}})
	require.Equal(t, http.StatusBadRequest, status)

	unconfigured := newFixture(t, web.WithAssistant(assistant.NewService(nil, nil, nil)))
	status, _ = unconfigured.do(t, http.MethodPost, "/api/voice-order", map[string]any{"messages": msgs})
	require.Equal(t, http.StatusInternalServerError, status)

	failing := newFixture(t, web.WithAssistant(assistant.NewService(assistant.WithError(errors.New("upstream down")), nil, nil)))
	status, body = failing.do(t, http.MethodPost, "/api/voice-order", map[string]any{"messages": msgs})
	require.Equal(t, http.StatusBadGateway, status)
	require.Contains(t, body["detail"], "upstream down")
}

func TestTTS(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/tts", map[string]string{"text": "주문하시겠어요?"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "mp3", body["format"])
	audio, err := base64.StdEncoding.DecodeString(body["audio"].(string))
	require.NoError(t, err)
	require.NotEmpty(t, audio)

	status, _ = f.do(t, http.MethodPost, "/api/tts", map[string]string{"text": " "})
	require.Equal(t, http.StatusBadRequest, status)

	failing := newFixture(t, web.WithTTS(tts.WithError(errors.New("quota"))))
	status, _ = failing.do(t, http.MethodPost, "/api/tts", map[string]string{"text": "네"})
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestTTSNotConfigured(t *testing.T) {
	ctx := context.Background()
	engine := kiosk.NewEngine(nil, catalog.NewSnapshot(catalog.Seed()))
	srv := web.NewServer(":0", engine, kiosk.NewRegistry(0))

	req := httptest.NewRequest(http.MethodPost, "/api/tts", bytes.NewReader([]byte(`{"text":"네"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req.WithContext(ctx), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/menu", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "menu falls back to the engine snapshot")
}

func TestKioskSessionFlow(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/kiosk/sessions", map[string]string{"orderType": "takeout"})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "menu-browsing", body["screen"])
	require.Equal(t, "takeout", body["orderType"])
	id := body["id"].(string)
	base := "/api/kiosk/sessions/" + id

	status, body = f.do(t, http.MethodPost, base+"/utterances", map[string]string{"text": "콜라 주세요"})
	require.Equal(t, http.StatusOK, status)
	session := body["session"].(map[string]any)
	cart := session["cart"].(map[string]any)
	require.EqualValues(t, 2000, cart["total"])
	require.Equal(t, "add_item", body["intent"].(map[string]any)["kind"])

	status, body = f.do(t, http.MethodPost, base+"/touch", map[string]string{"kind": "checkout"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "order-confirm", body["session"].(map[string]any)["screen"])
	require.Equal(t, true, body["navigated"])

	status, body = f.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "menu-browsing", body["screen"])

	status, body = f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "menu-browsing", body["screen"])

	status, _ = f.do(t, http.MethodPost, base+"/touch", map[string]string{"kind": "dance"})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, base+"/utterances", map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, status)

	stored, err := f.db.LoadCart(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 2000, stored.Total(), "engine persists cart changes")

	status, _ = f.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, body = f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "session not found", body["error"])
}

func TestCreateSessionRejectsUnknownOrderType(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodPost, "/api/kiosk/sessions", map[string]string{"orderType": "drive-thru"})
	require.Equal(t, http.StatusBadRequest, status)

	status, body := f.do(t, http.MethodPost, "/api/kiosk/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "home", body["screen"])
}

func TestOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, _ := f.do(t, http.MethodGet, "/api/orders/missing", nil)
	require.Equal(t, http.StatusNotFound, status)

	require.NoError(t, f.db.Publish(ctx, events.OrderCompleted{
		OrderID:       "o1",
		SessionID:     "s1",
		PaymentMethod: "card",
		Total:         0,
		CompletedAt:   time.Now(),
	}))
	status, body := f.do(t, http.MethodGet, "/api/orders/o1", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "card", body["paymentMethod"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, web.WithMetrics(metrics.New()))
	f.do(t, http.MethodGet, "/health", nil)

	resp, err := f.server.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), `kiosk_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodGet, "/ws/kiosk/abc", nil)
	require.Equal(t, http.StatusUpgradeRequired, status)
}
