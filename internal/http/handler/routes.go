package handler

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"finpack/internal/service"
)

// PackageMetrics counts decided packages by outcome. Implemented by
// middleware.Prometheus; nil disables counting.
type PackageMetrics interface {
	ObservePackage(status string)
}

// HealthCheck reports readiness by pinging the database.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListPackages returns decided packages with limit/offset pagination.
//
// @Summary List packages
// @Tags packages
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.PackageListResult
// @Failure 400 {object} errorPayload
// @Router /packages [get]
func ListPackages(pkgSvc service.PackageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := pkgSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// SubmitPackage accepts a ZIP upload (multipart field name: file), runs the
// decision pipeline synchronously, and returns the decided record. The
// record of a rejected package is still 201: the submission succeeded, the
// package did not.
//
// @Summary Submit a package for decision
// @Tags packages
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "package ZIP"
// @Success 201 {object} model.PackageRecord
// @Failure 400 {object} errorPayload
// @Router /packages [post]
func SubmitPackage(pkgSvc service.PackageService, metrics PackageMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".zip") {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_TYPE", "a .zip package is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		pkg, err := pkgSvc.Submit(c.UserContext(), f, fh.Filename, fh.Size)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if metrics != nil {
			metrics.ObservePackage(string(pkg.Status))
		}
		return c.Status(fiber.StatusCreated).JSON(pkg)
	}
}

// GetPackage returns a single package record by ID.
//
// @Summary Get a package
// @Tags packages
// @Produce json
// @Param id path string true "package id"
// @Success 200 {object} model.PackageRecord
// @Failure 404 {object} errorPayload
// @Router /packages/{id} [get]
func GetPackage(pkgSvc service.PackageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		pkg, err := pkgSvc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "package not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(pkg)
	}
}

// GetPackageReport returns presigned download URLs for the banked artifacts
// of a package, keyed by artifact name.
//
// @Summary Get a package's artifact report
// @Tags packages
// @Produce json
// @Param id path string true "package id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Router /packages/{id}/report [get]
func GetPackageReport(pkgSvc service.PackageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		urls, err := pkgSvc.Report(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "package not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(urls)
	}
}

// DeletePackage removes a package's banked artifacts and its record.
//
// @Summary Delete a package
// @Tags packages
// @Param id path string true "package id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /packages/{id} [delete]
func DeletePackage(pkgSvc service.PackageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := pkgSvc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "package not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic in this skeleton.
func RegisterRoutes(app *fiber.App, db *sql.DB, pkgSvc service.PackageService, metrics PackageMetrics) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/packages", ListPackages(pkgSvc))
	app.Post("/packages", SubmitPackage(pkgSvc, metrics))
	app.Get("/packages/:id", GetPackage(pkgSvc))
	app.Get("/packages/:id/report", GetPackageReport(pkgSvc))
	app.Delete("/packages/:id", DeletePackage(pkgSvc))
}
