package ops

import (
	"context"
	"net/url"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// MoreInfoSearchURL is the search page linked from disease records.
const MoreInfoSearchURL = "https://www.google.com/search?q="

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID          string
	IncludeCare bool      // render the care sheet markdown
	Now         time.Time // default: time.Now()
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	record.Record
	Title         string `json:"title"`
	DaysRemaining *int   `json:"daysRemaining,omitempty"`
	MoreInfoURL   string `json:"moreInfoUrl,omitempty"`
	CareSheet     string `json:"careSheet,omitempty"`
}

// MarshalJSON keeps the record's flat wire shape and appends the derived fields.
func (o FetchOutput) MarshalJSON() ([]byte, error) {
	extras := map[string]any{"title": o.Title}
	if o.DaysRemaining != nil {
		extras["daysRemaining"] = *o.DaysRemaining
	}
	if o.MoreInfoURL != "" {
		extras["moreInfoUrl"] = o.MoreInfoURL
	}
	if o.CareSheet != "" {
		extras["careSheet"] = o.CareSheet
	}
	return marshalWithExtras(o.Record, extras)
}

// Fetch retrieves one record with the fields the detail view derives from it.
func Fetch(ctx context.Context, store *history.Store, input FetchInput) (*FetchOutput, error) {
	id, ok := ValidateID(input.ID)
	if !ok {
		return nil, errors.NewInvalidRequest("id is required")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	r, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{Record: *r, Title: r.Title()}
	switch r.Kind {
	case record.KindGrowth:
		if days, ok := record.DaysRemaining(r.Growth, now); ok {
			output.DaysRemaining = &days
		}
	case record.KindDisease:
		output.MoreInfoURL = MoreInfoURL(r.Disease.DiseaseName)
	}
	if input.IncludeCare {
		output.CareSheet = record.CareSheet(r, now)
	}
	return output, nil
}

// MoreInfoURL returns a web search link for a lettuce disease.
func MoreInfoURL(diseaseName string) string {
	return MoreInfoSearchURL + url.QueryEscape("penyakit selada "+diseaseName)
}
