package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/rotation/internal/api/response"
	"github.com/newthinker/rotation/internal/dataload"
	"github.com/newthinker/rotation/internal/panel"
)

// PanelInfo describes the extent of one loaded panel.
type PanelInfo struct {
	Dates   int    `json:"dates"`
	Symbols int    `json:"symbols"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
}

// UniverseResponse lets clients pick a date range and benchmark before
// posting a run.
type UniverseResponse struct {
	Momentum        PanelInfo `json:"momentum"`
	Alpha           PanelInfo `json:"alpha"`
	Prices          PanelInfo `json:"prices"`
	Symbols         []string  `json:"symbols"`
	Benchmark       string    `json:"benchmark"`
	BenchmarkLoaded bool      `json:"benchmark_loaded"`

	Files *dataload.Inventory `json:"files,omitempty"`
}

// FileInventory is implemented by loaders that can describe the files
// behind their panels.
type FileInventory interface {
	Inventory(ctx context.Context) (dataload.Inventory, error)
}

// UniverseHandler reports what the configured panels contain.
type UniverseHandler struct {
	loader    PanelLoader
	benchmark string
}

// NewUniverseHandler creates a new universe handler.
func NewUniverseHandler(loader PanelLoader, benchmark string) *UniverseHandler {
	return &UniverseHandler{loader: loader, benchmark: benchmark}
}

// Get returns the panel extents and the alpha symbol universe.
func (h *UniverseHandler) Get(w http.ResponseWriter, r *http.Request) {
	var files *dataload.Inventory
	if lister, ok := h.loader.(FileInventory); ok {
		inv, err := lister.Inventory(r.Context())
		if err != nil {
			response.Fail(w, err)
			return
		}
		files = &inv
	}

	set, err := h.loader.Load(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, UniverseResponse{
		Momentum:        describe(set.Momentum),
		Alpha:           describe(set.Alpha),
		Prices:          describe(set.Prices),
		Symbols:         set.Alpha.Symbols,
		Benchmark:       h.benchmark,
		BenchmarkLoaded: set.Prices.Has(h.benchmark),
		Files:           files,
	})
}

func describe(p *panel.Panel) PanelInfo {
	info := PanelInfo{Dates: p.Len()}
	if p == nil {
		return info
	}
	info.Symbols = len(p.Symbols)
	if p.Len() > 0 {
		info.First = p.Dates[0].Format(time.DateOnly)
		info.Last = p.Dates[p.Len()-1].Format(time.DateOnly)
	}
	return info
}
