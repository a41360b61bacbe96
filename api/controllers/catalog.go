package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/api/middleware"
	"github.com/gearhouse/autoparts-backend/api/responses"
	"github.com/gearhouse/autoparts-backend/api/validators"
	"github.com/gearhouse/autoparts-backend/internal/catalog"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

const maxListLimit = 200

// ListProducts serves the public catalog. Hidden products only appear
// for staff callers asking for them.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter := catalog.ProductFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CategoryID = categoryID

		brandID, err := validators.ParseQueryUUID(r, "product_brand_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.ProductBrandID = brandID

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit = limit

		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Offset = offset

		includeHidden, err := validators.ParseQueryBool(r, "include_hidden")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.IncludeHidden = includeHidden && isStaff(middleware.RoleFromContext(r.Context()))

		rows, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// CreateProduct records a new product; the acting staff member is
// stamped on the row for revenue attribution.
func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload catalog.ProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if middleware.RoleFromContext(r.Context()) == enums.RoleAdmin {
			actorID := middleware.UserIDFromContext(r.Context())
			payload.AddedByAdminID = &actorID
		}

		row, err := svc.CreateProduct(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload catalog.ProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.UpdateProduct(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func DeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(svc, logg, "productID", func(r *http.Request, id uuid.UUID) error {
		return svc.DeleteProduct(r.Context(), id)
	})
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload catalog.CategoryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateCategory(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func UpdateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, "categoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload catalog.CategoryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.UpdateCategory(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func DeleteCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(svc, logg, "categoryID", func(r *http.Request, id uuid.UUID) error {
		return svc.DeleteCategory(r.Context(), id)
	})
}

func ListCarBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		rows, err := svc.ListCarBrands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateCarBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload catalog.NamedInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateCarBrand(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func DeleteCarBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(svc, logg, "brandID", func(r *http.Request, id uuid.UUID) error {
		return svc.DeleteCarBrand(r.Context(), id)
	})
}

func ListCarModels(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		brandID, err := validators.ParseQueryUUID(r, "car_brand_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListCarModels(r.Context(), brandID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateCarModel(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload catalog.CarModelInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateCarModel(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func DeleteCarModel(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(svc, logg, "modelID", func(r *http.Request, id uuid.UUID) error {
		return svc.DeleteCarModel(r.Context(), id)
	})
}

func ListProductBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		rows, err := svc.ListProductBrands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateProductBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload catalog.NamedInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.CreateProductBrand(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func DeleteProductBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(svc, logg, "brandID", func(r *http.Request, id uuid.UUID) error {
		return svc.DeleteProductBrand(r.Context(), id)
	})
}

func deleteByID(svc catalog.Service, logg *logger.Logger, param string, del func(*http.Request, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := del(r, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func isStaff(role enums.Role) bool {
	switch role {
	case enums.RoleOwner, enums.RolePartner, enums.RoleAdmin:
		return true
	}
	return false
}
