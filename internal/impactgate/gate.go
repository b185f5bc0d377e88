// Package impactgate screens new projects through the impact classifier
// before they are persisted.
package impactgate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"impacthub/internal/domain"
	"impacthub/internal/providers/impact"
)

// Policy controls how verdicts gate creation.
type Policy struct {
	Enforce  bool
	FailOpen bool
}

// Decision is the outcome of Decide.
type Decision int

const (
	Accept Decision = iota
	Reject
	RejectAmbiguous
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case RejectAmbiguous:
		return "reject_ambiguous"
	}
	return "unknown"
}

// Decide applies the policy table to a classifier result.
func Decide(result impact.Tri, p Policy) Decision {
	if !p.Enforce {
		return Accept
	}
	switch result {
	case impact.True:
		return Accept
	case impact.False:
		return Reject
	}
	if p.FailOpen {
		return Accept
	}
	return RejectAmbiguous
}

// RejectionError carries the classifier diagnostics shown to the client.
type RejectionError struct {
	Ambiguous       bool
	Reason          string
	Text            string
	ClassifierError string
}

func (e *RejectionError) Error() string {
	if e.Ambiguous {
		return "impact classification ambiguous"
	}
	if e.Reason != "" {
		return "project rejected: " + e.Reason
	}
	return "project rejected: not classified as a social impact project"
}

func (e *RejectionError) Unwrap() error {
	if e.Ambiguous {
		return domain.ErrClassificationAmbiguous
	}
	return domain.ErrClassificationRejected
}

// Gate classifies drafts and persists the accepted ones.
type Gate struct {
	classifier impact.Classifier
	projects   domain.ProjectRepository
	policy     Policy
	log        zerolog.Logger
}

func New(classifier impact.Classifier, projects domain.ProjectRepository, policy Policy, logger zerolog.Logger) *Gate {
	return &Gate{classifier: classifier, projects: projects, policy: policy, log: logger}
}

// Policy returns the active policy.
func (g *Gate) Policy() Policy { return g.policy }

// Create validates, classifies and stores a draft owned by creatorID. A
// rejected draft returns a *RejectionError and nothing is written.
func (g *Gate) Create(ctx context.Context, draft domain.ProjectDraft, creatorID string) (*domain.Project, error) {
	draft, err := NormalizeDraft(draft)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(creatorID) == "" {
		return nil, domain.ErrUnauthorized
	}

	verdict := g.classifier.Classify(ctx, impact.Input{
		Title:       draft.Title,
		Area:        draft.ImpactArea,
		Description: draft.Description,
	})
	result := impact.Coerce(verdict.Result)
	decision := Decide(result, g.policy)

	g.log.Info().
		Str("provider", verdict.Provider).
		Str("result", result.String()).
		Str("decision", decision.String()).
		Str("classifier_error", verdict.Error).
		Bool("enforce", g.policy.Enforce).
		Bool("fail_open", g.policy.FailOpen).
		Msg("impact gate")

	switch decision {
	case Reject:
		return nil, &RejectionError{Reason: verdict.Reason, Text: verdict.Text, ClassifierError: verdict.Error}
	case RejectAmbiguous:
		return nil, &RejectionError{Ambiguous: true, Reason: verdict.Reason, Text: verdict.Text, ClassifierError: verdict.Error}
	}

	project := &domain.Project{
		UserID:      creatorID,
		Title:       draft.Title,
		ImpactArea:  draft.ImpactArea,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
	}
	if err := g.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// NormalizeDraft trims fields and checks the required ones. An empty image
// URL is treated as absent.
func NormalizeDraft(d domain.ProjectDraft) (domain.ProjectDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.ImpactArea = strings.TrimSpace(d.ImpactArea)
	d.Description = strings.TrimSpace(d.Description)
	switch {
	case d.Title == "":
		return d, domain.Invalid("title", "is required")
	case d.ImpactArea == "":
		return d, domain.Invalid("impact_area", "is required")
	case d.Description == "":
		return d, domain.Invalid("description", "is required")
	case len(d.Title) > 255:
		return d, domain.Invalid("title", "must be at most 255 characters")
	case len(d.ImpactArea) > 100:
		return d, domain.Invalid("impact_area", "must be at most 100 characters")
	}
	if d.ImageURL != nil {
		raw := strings.TrimSpace(*d.ImageURL)
		if raw == "" {
			d.ImageURL = nil
			return d, nil
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return d, domain.Invalid("image_url", "must be an absolute http(s) URL")
		}
		if len(raw) > 1000 {
			return d, domain.Invalid("image_url", "must be at most 1000 characters")
		}
		d.ImageURL = &raw
	}
	return d, nil
}
