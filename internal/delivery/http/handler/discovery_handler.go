package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/discovery"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type DiscoveryHandler struct {
	discoveryUseCase *discovery.DiscoveryUseCase
	decisionWindow   time.Duration
	validate         *validator.Validate
}

func NewDiscoveryHandler(discoveryUseCase *discovery.DiscoveryUseCase, decisionWindow time.Duration) *DiscoveryHandler {
	if decisionWindow <= 0 {
		decisionWindow = discovery.DefaultDecisionWindow
	}
	return &DiscoveryHandler{
		discoveryUseCase: discoveryUseCase,
		decisionWindow:   decisionWindow,
		validate:         validator.New(),
	}
}

// CandidatesResponse is the discovery deck for the viewer
type CandidatesResponse struct {
	Candidates            []*domain.Profile `json:"candidates"`
	Count                 int               `json:"count"`
	DecisionWindowSeconds int               `json:"decision_window_seconds"`
}

// GetCandidates handles GET /discovery/candidates
// @Summary Discovery candidates
// @Description Profiles the viewer may send a pair request to
// @Tags discovery
// @Security BearerAuth
// @Produce json
// @Param location query string false "Location substring"
// @Param nationality query string false "Nationality substring"
// @Param interests query string false "Comma separated interests"
// @Param looking_for query string false "Comma separated relationship types"
// @Param min_reputation query int false "Minimum reputation"
// @Param max_reputation query int false "Maximum reputation"
// @Success 200 {object} CandidatesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /discovery/candidates [get]
func (h *DiscoveryHandler) GetCandidates(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	criteria, err := h.parseCriteria(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	candidates, err := h.discoveryUseCase.GetCandidates(c.Request.Context(), s, criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CandidatesResponse{
		Candidates:            candidates,
		Count:                 len(candidates),
		DecisionWindowSeconds: int(h.decisionWindow / time.Second),
	})
}

func (h *DiscoveryHandler) parseCriteria(c *gin.Context) (domain.Criteria, error) {
	criteria := domain.Criteria{
		Location:    strings.TrimSpace(c.Query("location")),
		Nationality: strings.TrimSpace(c.Query("nationality")),
		Interests:   splitList(c.Query("interests")),
		LookingFor:  splitList(c.Query("looking_for")),
	}

	var err error
	if criteria.MinReputation, err = optionalInt(c.Query("min_reputation")); err != nil {
		return criteria, domain.ErrInvalidInput
	}
	if criteria.MaxReputation, err = optionalInt(c.Query("max_reputation")); err != nil {
		return criteria, domain.ErrInvalidInput
	}

	if err := h.validate.Struct(criteria); err != nil {
		return criteria, domain.ErrInvalidInput
	}
	return criteria, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return domain.NormalizeTags(strings.Split(raw, ","))
}

func optionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
