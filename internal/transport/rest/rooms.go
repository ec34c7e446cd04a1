package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const listingTimeout = 2 * time.Second

type listingSource interface {
	Listing(ctx context.Context) ([]entity.ListingEntry, error)
}

type roomsHandler struct {
	logger *slog.Logger
	rooms  listingSource
}

func (that *roomsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listingTimeout)
	defer cancel()

	listing, err := that.rooms.Listing(ctx)
	if err != nil {
		that.logger.Error("failed to read room listing", "method", "list", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(listing); err != nil {
		that.logger.Warn("failed to write room listing", "method", "list", "error", err)
	}
}
