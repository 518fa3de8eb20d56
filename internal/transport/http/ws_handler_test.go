package http

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"devexchange-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestStatisticsStream(t *testing.T) {
	h := newHarness(t)
	owner := h.token(t, domain.Actor{UserID: "u1"})
	tree, img := h.seedBirds(t, owner)
	link := strconv.FormatInt(tree.Category.ConfigLinkID, 10)

	u := "ws" + h.server.URL[len("http"):] + "/ws/statistics?configLinkId=" + link
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The snapshot arrives once the subscription is registered.
	initial := readStatistics(t, conn)
	if got := redCount(t, initial); got != 0 {
		t.Fatalf("expected empty snapshot, got %d", got)
	}

	resp, env := h.doJSON(t, http.MethodPost, "/SubmitImageAnswers", "", submission(tree, img, "Red"), SessionHeader, "s1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d %s", resp.StatusCode, env.Message)
	}

	update := readStatistics(t, conn)
	if got := redCount(t, update); got != 1 {
		t.Fatalf("expected updated count 1, got %d", got)
	}
}

func TestStatisticsStreamUnknownCategory(t *testing.T) {
	h := newHarness(t)
	u := "ws" + h.server.URL[len("http"):] + "/ws/statistics?configLinkId=404"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg outboundMessage[errorPayload]
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.Payload.Message != domain.ErrCategoryNotFound.Error() {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestStatisticsStreamRequiresLink(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/ws/statistics", "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readStatistics(t *testing.T, conn *websocket.Conn) domain.CategoryStatistic {
	t.Helper()
	var msg outboundMessage[domain.CategoryStatistic]
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "statistics" {
		t.Fatalf("expected statistics frame, got %s", msg.Type)
	}
	return msg.Payload
}

func redCount(t *testing.T, stat domain.CategoryStatistic) int64 {
	t.Helper()
	if len(stat.Images) != 1 || len(stat.Images[0].Questions) != 1 {
		t.Fatalf("unexpected statistic shape %+v", stat)
	}
	for _, o := range stat.Images[0].Questions[0].Options {
		if o.OptionText == "Red" {
			return o.Count
		}
	}
	t.Fatalf("no Red option in %+v", stat)
	return 0
}
