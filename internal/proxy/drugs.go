package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/docaidkit/medkit/internal/observability"
	"github.com/go-resty/resty/v2"
)

var (
	ErrInvalidDrugName = errors.New("drug name must be 1-100 characters of letters, numbers, spaces and hyphens")
	ErrDrugUpstream    = errors.New("drug service unavailable")
)

var drugNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-]+$`)

// ValidateDrugName applies the same constraints the upstream expects:
// trimmed, non-empty, at most 100 characters, restricted character set.
func ValidateDrugName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" || len(name) > 100 || !drugNamePattern.MatchString(name) {
		return "", ErrInvalidDrugName
	}

	return name, nil
}

type DrugInteraction struct {
	Drug1Name       string `json:"drug1_name,omitempty"`
	Drug2Name       string `json:"drug2_name,omitempty"`
	InteractionType string `json:"interaction_type,omitempty"`
	Drug1Brand      string `json:"drug1_brand,omitempty"`
	Drug2Brand      string `json:"drug2_brand,omitempty"`
	Drug1Scientific string `json:"drug1_scientific,omitempty"`
	Drug2Scientific string `json:"drug2_scientific,omitempty"`
}

type DrugSearchResult struct {
	Drug         string            `json:"drug"`
	Interactions []DrugInteraction `json:"interactions"`
}

type InteractionCheckResult struct {
	Drug1       string           `json:"drug1"`
	Drug2       string           `json:"drug2"`
	Interaction *DrugInteraction `json:"interaction"`
}

// DescriptionResult mirrors the description API response; individual
// result entries carry a variable attribute set, so they stay maps.
type DescriptionResult struct {
	Query    string                       `json:"query"`
	Count    int                          `json:"count"`
	Language string                       `json:"language"`
	Message  string                       `json:"message,omitempty"`
	Results  []map[string]json.RawMessage `json:"results"`
}

// DrugsClient talks to the interaction API and the description API. Both
// are consumed as-is; failures surface as a single generic error with no
// retry.
type DrugsClient struct {
	interactions *resty.Client
	descriptions *resty.Client
	prom         *observability.Prom
}

func NewDrugsClient(interactionURL, descriptionURL string, prom *observability.Prom) *DrugsClient {
	timeout := 15 * time.Second

	return &DrugsClient{
		interactions: resty.New().
			SetBaseURL(strings.TrimRight(interactionURL, "/")).
			SetTimeout(timeout),
		descriptions: resty.New().
			SetBaseURL(strings.TrimRight(descriptionURL, "/")).
			SetTimeout(timeout),
		prom: prom,
	}
}

func (c *DrugsClient) observe(tool string, fn func() error) error {
	if c.prom != nil {
		return c.prom.ObserveProxy(tool, fn)
	}
	return fn()
}

func (c *DrugsClient) Search(ctx context.Context, drugName string) (DrugSearchResult, error) {
	var out DrugSearchResult

	err := c.observe("drug_search", func() error {
		resp, err := c.interactions.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"drug_name": drugName}).
			SetResult(&out).
			Post("/search_drug")

		if err != nil {
			return fmt.Errorf("search drug: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: status %d", ErrDrugUpstream, resp.StatusCode())
		}
		return nil
	})

	if err != nil {
		return DrugSearchResult{}, err
	}

	return out, nil
}

func (c *DrugsClient) CheckInteraction(ctx context.Context, drug1, drug2 string) (InteractionCheckResult, error) {
	var out InteractionCheckResult

	err := c.observe("drug_interaction", func() error {
		resp, err := c.interactions.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"drug1": drug1, "drug2": drug2}).
			SetResult(&out).
			Post("/check_interaction")

		if err != nil {
			return fmt.Errorf("check interaction: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: status %d", ErrDrugUpstream, resp.StatusCode())
		}
		return nil
	})

	if err != nil {
		return InteractionCheckResult{}, err
	}

	return out, nil
}

func (c *DrugsClient) Describe(ctx context.Context, drugName, language string) (DescriptionResult, error) {
	if language != "arabic" {
		language = "english"
	}

	var out DescriptionResult

	err := c.observe("drug_description", func() error {
		resp, err := c.descriptions.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"name":     drugName,
				"language": language,
				"use":      "true",
				"side":     "true",
			}).
			SetResult(&out).
			Get("/search")

		if err != nil {
			return fmt.Errorf("describe drug: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: status %d", ErrDrugUpstream, resp.StatusCode())
		}
		return nil
	})

	if err != nil {
		return DescriptionResult{}, err
	}

	return out, nil
}
