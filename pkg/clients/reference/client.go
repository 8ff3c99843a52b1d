package reference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no reference URL is set.
	ErrNotConfigured = errors.New("reference service not configured")

	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("reference row not found")
)

// Client exposes the reference-data lookups used to enrich detections.
type Client interface {
	GrowthStage(ctx context.Context, id int) (*GrowthStage, error)
	Nutrients(ctx context.Context, stageID int) ([]Nutrient, error)
	Disease(ctx context.Context, id int) (*Disease, error)
	Treatments(ctx context.Context, diseaseID int) ([]string, error)
}

// GrowthStage is a row of tahap_pertumbuhan.
type GrowthStage struct {
	ID              int    `json:"id"`
	Name            string `json:"nama"`
	HarvestEstimate string `json:"estimasi_waktu_panen"`
}

// Nutrient is a row of tahap_nutrisi joined with nutrisi_info.
type Nutrient struct {
	StageID int      `json:"tahap_id"`
	ECMin   *float64 `json:"ec_min"`
	ECMax   *float64 `json:"ec_max"`
	PHMin   *float64 `json:"ph_min"`
	PHMax   *float64 `json:"ph_max"`
	Notes   *string  `json:"catatan"`
	Info    struct {
		Name        string `json:"nama_nutrisi"`
		Description string `json:"deskripsi"`
	} `json:"nutrisi_info"`
}

// Disease is a row of penyakit_info.
type Disease struct {
	ID          int    `json:"id"`
	Name        string `json:"nama"`
	Description string `json:"deskripsi"`
}

type treatmentRow struct {
	TreatmentID int `json:"penanganan_id"`
	Treatment   struct {
		ID   int    `json:"id"`
		Step string `json:"langkah"`
	} `json:"penanganan"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Hint    string `json:"hint"`
}

// Config holds connection settings for the reference service.
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// APIClient is a resty-backed implementation of Client with an in-process cache.
// Only successful lookups are cached.
type APIClient struct {
	httpClient *resty.Client
	cache      *cache.Cache
	configured bool
	logger     *zap.Logger
}

// NewClient builds a reference client. An empty BaseURL yields a client whose
// lookups all fail with ErrNotConfigured.
func NewClient(cfg Config, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/rest/v1").
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{
		httpClient: restyClient,
		cache:      cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		configured: strings.TrimSpace(cfg.BaseURL) != "",
		logger:     logger,
	}
}

// get runs a PostgREST select against table, decoding the row array into out.
func (c *APIClient) get(ctx context.Context, table, sel, column string, id int, out any) error {
	if !c.configured {
		return ErrNotConfigured
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", sel).
		SetQueryParam(column, "eq."+strconv.Itoa(id)).
		ExpectContentType("application/json").
		SetResult(out).
		SetError(apiErr).
		Get("/" + table)
	if err != nil {
		return fmt.Errorf("reference %s request: %w", table, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("reference api error: table=%s, code=%d, message=%s", table, resp.StatusCode(), apiErr.Message)
	}
	return nil
}

// GrowthStage looks up a growth stage by id.
func (c *APIClient) GrowthStage(ctx context.Context, id int) (*GrowthStage, error) {
	cacheKey := fmt.Sprintf("growth:%d", id)
	if cached, found := c.cache.Get(cacheKey); found {
		if stage, ok := cached.(GrowthStage); ok {
			c.logger.Debug("reference cache hit", zap.String("cache_key", cacheKey))
			return &stage, nil
		}
	}

	var rows []GrowthStage
	if err := c.get(ctx, "tahap_pertumbuhan", "id,nama,estimasi_waktu_panen", "id", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("growth stage %d: %w", id, ErrNotFound)
	}

	c.cache.Set(cacheKey, rows[0], cache.DefaultExpiration)
	stage := rows[0]
	return &stage, nil
}

// Nutrients lists the nutrient recommendations for a growth stage.
func (c *APIClient) Nutrients(ctx context.Context, stageID int) ([]Nutrient, error) {
	cacheKey := fmt.Sprintf("nutrients:%d", stageID)
	if cached, found := c.cache.Get(cacheKey); found {
		if nutrients, ok := cached.([]Nutrient); ok {
			return append([]Nutrient(nil), nutrients...), nil
		}
	}

	var rows []Nutrient
	if err := c.get(ctx, "tahap_nutrisi", "*,nutrisi_info!inner(nama_nutrisi,deskripsi)", "tahap_id", stageID, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Nutrient{}
	}

	c.cache.Set(cacheKey, rows, cache.DefaultExpiration)
	return append([]Nutrient(nil), rows...), nil
}

// Disease looks up a disease by id.
func (c *APIClient) Disease(ctx context.Context, id int) (*Disease, error) {
	cacheKey := fmt.Sprintf("disease:%d", id)
	if cached, found := c.cache.Get(cacheKey); found {
		if disease, ok := cached.(Disease); ok {
			c.logger.Debug("reference cache hit", zap.String("cache_key", cacheKey))
			return &disease, nil
		}
	}

	var rows []Disease
	if err := c.get(ctx, "penyakit_info", "id,nama,deskripsi", "id", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("disease %d: %w", id, ErrNotFound)
	}

	c.cache.Set(cacheKey, rows[0], cache.DefaultExpiration)
	disease := rows[0]
	return &disease, nil
}

// Treatments lists the treatment steps for a disease, in service order.
func (c *APIClient) Treatments(ctx context.Context, diseaseID int) ([]string, error) {
	cacheKey := fmt.Sprintf("treatments:%d", diseaseID)
	if cached, found := c.cache.Get(cacheKey); found {
		if steps, ok := cached.([]string); ok {
			return append([]string(nil), steps...), nil
		}
	}

	var rows []treatmentRow
	if err := c.get(ctx, "penyakit_penanganan", "penanganan_id,penanganan!inner(id,langkah)", "penyakit_id", diseaseID, &rows); err != nil {
		return nil, err
	}
	steps := make([]string, 0, len(rows))
	for _, r := range rows {
		steps = append(steps, r.Treatment.Step)
	}

	c.cache.Set(cacheKey, steps, cache.DefaultExpiration)
	return append([]string(nil), steps...), nil
}
