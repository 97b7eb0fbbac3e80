package bot

import (
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTPServer exposes the webhook endpoint plus health and metrics.
type HTTPServer struct {
	bot         *Bot
	webhookMode bool
}

// NewHTTPServer creates the HTTP surface for the bot.
func NewHTTPServer(bot *Bot, webhookMode bool) *HTTPServer {
	return &HTTPServer{
		bot:         bot,
		webhookMode: webhookMode,
	}
}

// RegisterRoutes registers all routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", hs.handleRoot)
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/telegram-webhook", hs.handleWebhook)
	mux.Handle("/metrics", promhttp.Handler())
}

func (hs *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	mode := "polling"
	if hs.webhookMode {
		mode = "webhook"
	}
	fmt.Fprintf(w, "Channel publishing bot is running (mode: %s)", mode)
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleWebhook accepts one Telegram update per request. The update is
// processed in the background and the request acknowledged immediately;
// Telegram redelivers on anything but a 200, and processing outcome must
// not affect the acknowledgment (fire-and-forget).
func (hs *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		hs.bot.logger.Warn("Error decoding webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	go hs.bot.HandleUpdate(update)

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}
