package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/nutriplan-backend/internal/http/response"
	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/allocation"
	"github.com/yungbote/nutriplan-backend/internal/services"
)

type ExchangePlanHandler struct {
	plans services.ExchangePlanService
}

func NewExchangePlanHandler(plans services.ExchangePlanService) *ExchangePlanHandler {
	return &ExchangePlanHandler{plans: plans}
}

// EnergyBudget is an alternative to explicit gram targets: a calorie budget
// split by macro percentages.
type EnergyBudget struct {
	Calories   float64 `json:"calories"`
	CarbPct    float64 `json:"carb_pct"`
	ProteinPct float64 `json:"protein_pct"`
	FatPct     float64 `json:"fat_pct"`
}

type generatePlanRequest struct {
	ProfileVersion string                        `json:"profile_version"`
	PatientRef     string                        `json:"patient_ref"`
	Targets        *allocation.EnergyTargets     `json:"targets"`
	Energy         *EnergyBudget                 `json:"energy"`
	Constraints    allocation.PatientConstraints `json:"constraints"`
}

func (r generatePlanRequest) targets() (allocation.EnergyTargets, error) {
	switch {
	case r.Targets != nil && r.Energy != nil:
		return allocation.EnergyTargets{}, fmt.Errorf("%w: send either targets or energy, not both", services.ErrInvalidInput)
	case r.Targets != nil:
		return *r.Targets, nil
	case r.Energy != nil:
		return allocation.TargetsFromCalories(r.Energy.Calories, r.Energy.CarbPct, r.Energy.ProteinPct, r.Energy.FatPct)
	default:
		return allocation.EnergyTargets{}, fmt.Errorf("%w: missing targets", services.ErrInvalidInput)
	}
}

// POST /api/systems/:systemId/exchange-plans
func (h *ExchangePlanHandler) Generate(c *gin.Context) {
	var req generatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	targets, err := req.targets()
	if err != nil {
		response.RespondErr(c, err, "generate_plan_failed")
		return
	}
	if req.Constraints.Goal != "" && !req.Constraints.Goal.Valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal", fmt.Errorf("unknown goal %q", req.Constraints.Goal))
		return
	}
	plan, err := h.plans.Generate(c.Request.Context(), services.GeneratePlanInput{
		SystemID:       c.Param("systemId"),
		ProfileVersion: req.ProfileVersion,
		PatientRef:     req.PatientRef,
		Targets:        targets,
		Constraints:    req.Constraints,
	})
	if err != nil {
		response.RespondErr(c, err, "generate_plan_failed")
		return
	}
	if plan.ID != nil {
		response.RespondCreated(c, gin.H{"plan": plan})
		return
	}
	response.RespondOK(c, gin.H{"plan": plan})
}

// GET /api/exchange-plans/:id
func (h *ExchangePlanHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_plan_failed")
		return
	}
	response.RespondOK(c, gin.H{"plan": plan})
}

// GET /api/systems/:systemId/exchange-plans?patient_ref=...&limit=...
func (h *ExchangePlanHandler) ListForPatient(c *gin.Context) {
	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	plans, err := h.plans.ListForPatient(c.Request.Context(), c.Param("systemId"), c.Query("patient_ref"), limit)
	if err != nil {
		response.RespondErr(c, err, "list_plans_failed")
		return
	}
	response.RespondOK(c, gin.H{"plans": plans})
}
