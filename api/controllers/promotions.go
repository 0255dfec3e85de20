package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merkadolite/merkadolite-backend/api/responses"
	"github.com/merkadolite/merkadolite-backend/api/validators"
	"github.com/merkadolite/merkadolite-backend/internal/promotions"
	"github.com/merkadolite/merkadolite-backend/pkg/enums"
	pkgerrors "github.com/merkadolite/merkadolite-backend/pkg/errors"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

type createPromotionRequest struct {
	Description  *string   `json:"description"`
	DiscountType string    `json:"discount_type" validate:"required,oneof=percentage fixed buy_x_get_y"`
	Value        string    `json:"value" validate:"required"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required"`
	ProductIDs   []string  `json:"product_ids" validate:"required,min=1,dive,uuid"`
}

type updatePromotionRequest struct {
	Description *string    `json:"description"`
	Value       *string    `json:"value"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ProductIDs  []string   `json:"product_ids" validate:"omitempty,min=1,dive,uuid"`
}

// ListPromotions returns all promotions with freshly derived statuses.
func ListPromotions(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetPromotion returns one promotion.
func GetPromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// CreatePromotion records a manually entered promotion.
func CreatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPromotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		value, err := decimal.NewFromString(req.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value"))
			return
		}
		productIDs, err := parseUUIDs(req.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), promotions.CreateInput{
			Description:  req.Description,
			DiscountType: enums.DiscountType(req.DiscountType),
			Value:        value,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			ProductIDs:   productIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// UpdatePromotion applies partial edits to a promotion.
func UpdatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := promotions.UpdateInput{
			Description: req.Description,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
		}
		if req.Value != nil {
			value, err := decimal.NewFromString(*req.Value)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value"))
				return
			}
			input.Value = &value
		}
		if req.ProductIDs != nil {
			productIDs, err := parseUUIDs(req.ProductIDs)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ProductIDs = productIDs
		}

		row, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// DeletePromotion removes a promotion.
func DeletePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "promotion deleted"})
	}
}

// GenerateAutoPromotions runs the automatic promotion pass on demand.
func GenerateAutoPromotions(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.GenerateAuto(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": "automatic promotions generated",
			"count":   count,
		})
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		out = append(out, id)
	}
	return out, nil
}
