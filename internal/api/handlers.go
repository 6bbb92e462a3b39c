package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"realtywizard/server/config"
	"realtywizard/server/internal/flags"
	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/generation"
	"realtywizard/server/internal/models"
	"realtywizard/server/internal/persistence"
	"realtywizard/server/internal/session"
	"realtywizard/server/internal/validation"
	"realtywizard/server/internal/wizard"
)

// Store is the property and image storage the API works against.
type Store interface {
	persistence.PropertyService
	gallery.Service
	ListProperties(ctx context.Context, tenantID, city string) ([]models.Property, error)
}

// Notifier announces finalized listings.
type Notifier interface {
	NotifyPropertySaved(ctx context.Context, prop *models.Property, created bool) error
}

// Deps wires the handler to the rest of the service.
type Deps struct {
	Store     Store
	Quota     func(tenantID string) gallery.QuotaChecker
	Generator generation.Generator
	Flags     flags.Provider
	Lookup    wizard.AddressLookup
	Queue     persistence.Enqueuer
	Sessions  *session.Registry
	Notifier  Notifier

	Limits            gallery.Limits
	MaxVariants       int
	GenerationTimeout time.Duration
	Logger            *logrus.Logger
}

type Handler struct {
	deps    Deps
	gateway *persistence.Gateway
	logger  *logrus.Logger
}

type CreateSessionRequest struct {
	Mode       string `json:"mode"`
	PropertyID string `json:"property_id"`
}

type JumpRequest struct {
	Step *int `json:"step" binding:"required"`
}

type AddressLookupRequest struct {
	Target     string `json:"target" binding:"required,oneof=location owner"`
	PostalCode string `json:"postal_code" binding:"required"`
}

type ReorderRequest struct {
	From    *int `json:"from" binding:"required"`
	To      *int `json:"to" binding:"required"`
	Pending bool `json:"pending"`
}

type AIAssistRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type stepResponse struct {
	Transition wizard.Transition `json:"transition"`
	State      wizard.State      `json:"state"`
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if deps.Flags == nil {
		deps.Flags = flags.NewStatic(flags.Tenant{MCMVEnabled: true})
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewRegistry(logger)
	}
	if deps.GenerationTimeout <= 0 {
		deps.GenerationTimeout = 45 * time.Second
	}
	return &Handler{
		deps:    deps,
		gateway: persistence.NewGateway(deps.Store, deps.Queue, logger),
		logger:  logger,
	}
}

// generationContext bounds calls that may hit the description generator.
func (h *Handler) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.deps.GenerationTimeout)
}

func (h *Handler) controller(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, err := h.deps.Sessions.Get(c.Param("id"), tenantID(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}
	mode, err := wizard.ParseMode(req.Mode)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	tenant := tenantID(c)
	opts := wizard.Options{
		Mode:           mode,
		TenantID:       tenant,
		PropertyID:     req.PropertyID,
		Saver:          h.gateway,
		GalleryService: h.deps.Store,
		Limits:         h.deps.Limits,
		Generator:      h.deps.Generator,
		MaxVariants:    h.deps.MaxVariants,
		Flags:          h.deps.Flags.TenantFlags(c.Request.Context(), tenant),
		Lookup:         h.deps.Lookup,
		Logger:         h.logger,
	}
	if h.deps.Quota != nil {
		opts.Quota = h.deps.Quota(tenant)
	}

	ctrl, err := wizard.New(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	id := h.deps.Sessions.Add(ctrl)
	c.JSON(http.StatusCreated, gin.H{
		"session_id": id,
		"state":      ctrl.State(),
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.deps.Sessions.Close(c.Param("id"), tenantID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// decodeSection binds the request body to the draft section it names.
func decodeSection(c *gin.Context, section string) (wizard.Action, error) {
	var err error
	switch section {
	case "basic":
		var v models.BasicInfo
		err = c.ShouldBindJSON(&v)
		return wizard.SetBasicInfo(v), err
	case "location":
		var v models.Location
		err = c.ShouldBindJSON(&v)
		return wizard.SetLocation(v), err
	case "characteristics":
		var v models.Characteristics
		err = c.ShouldBindJSON(&v)
		return wizard.SetCharacteristics(v), err
	case "pricing":
		var v models.Pricing
		err = c.ShouldBindJSON(&v)
		return wizard.SetPricing(v), err
	case "clients":
		var v models.Clients
		err = c.ShouldBindJSON(&v)
		return wizard.SetClients(v), err
	case "mcmv":
		var v models.MCMV
		err = c.ShouldBindJSON(&v)
		return wizard.SetMCMV(v), err
	case "owner":
		var v models.Owner
		err = c.ShouldBindJSON(&v)
		return wizard.SetOwner(v), err
	}
	return nil, fmt.Errorf("unknown draft section %q", section)
}

func (h *Handler) UpdateDraft(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	action, err := decodeSection(c, c.Param("section"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if err := ctrl.Dispatch(action); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (h *Handler) step(c *gin.Context, ctrl *wizard.Controller, tr wizard.Transition, err error) {
	if err != nil {
		h.failWith(c, err, gin.H{"transition": tr})
		return
	}
	c.JSON(http.StatusOK, stepResponse{Transition: tr, State: ctrl.State()})
}

func (h *Handler) Next(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctx, cancel := h.generationContext(c)
	defer cancel()
	tr, err := ctrl.GoNext(ctx)
	h.step(c, ctrl, tr, err)
}

func (h *Handler) Previous(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	tr, err := ctrl.GoPrevious()
	h.step(c, ctrl, tr, err)
}

func (h *Handler) Jump(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx, cancel := h.generationContext(c)
	defer cancel()
	tr, err := ctrl.JumpTo(ctx, validation.Step(*req.Step))
	h.step(c, ctrl, tr, err)
}

func (h *Handler) LookupAddress(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req AddressLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	addr, err := ctrl.PrefillAddress(c.Request.Context(), wizard.AddressTarget(req.Target), req.PostalCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "state": ctrl.State()})
}

func (h *Handler) UploadImages(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		h.badRequest(c, errors.New("no files uploaded"))
		return
	}

	files := make([]gallery.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.badRequest(c, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.badRequest(c, err)
			return
		}
		files = append(files, gallery.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := ctrl.AdmitImages(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{"result": res, "state": ctrl.State()}
	if res.UploadErr != nil {
		body["upload_error"] = res.UploadErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) ReorderImages(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Pending {
		err := ctrl.MovePendingImage(*req.From, *req.To)
		h.respondState(c, ctrl, err)
		return
	}
	h.respondState(c, ctrl, ctrl.MoveImage(c.Request.Context(), *req.From, *req.To))
}

func (h *Handler) SetMainImage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respondState(c, ctrl, ctrl.SetMainImage(c.Request.Context(), c.Param("imageId")))
}

func (h *Handler) RemoveImage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respondState(c, ctrl, ctrl.RemoveImage(c.Param("imageId")))
}

func (h *Handler) RestoreImage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	h.respondState(c, ctrl, ctrl.RestoreImage(c.Param("imageId")))
}

func (h *Handler) SetAIAssist(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req AIAssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.respondState(c, ctrl, ctrl.SetAIAssist(*req.Enabled))
}

func (h *Handler) Regenerate(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctx, cancel := h.generationContext(c)
	defer cancel()
	v, err := ctrl.Regenerate(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": v, "state": ctrl.State()})
}

func (h *Handler) variant(c *gin.Context, pick func(int) (models.DescriptionVariant, error)) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, fmt.Errorf("invalid variant index %q", c.Param("index")))
		return
	}
	v, err := pick(i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": v})
}

func (h *Handler) SelectVariant(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		h.variant(c, ctrl.SelectVariant)
	}
}

func (h *Handler) AcceptVariant(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		h.variant(c, ctrl.AcceptVariant)
	}
}

func (h *Handler) Finalize(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	prop, tr, err := ctrl.Finalize(c.Request.Context())
	if err != nil {
		h.failWith(c, err, gin.H{"transition": tr, "state": ctrl.State()})
		return
	}
	if h.deps.Notifier != nil {
		// delivery failures are logged by the notifier and never fail the save
		_ = h.deps.Notifier.NotifyPropertySaved(c.Request.Context(), prop, ctrl.Mode() == wizard.ModeCreate)
	}
	c.JSON(http.StatusOK, gin.H{
		"property":   prop,
		"transition": tr,
		"state":      ctrl.State(),
	})
}

func (h *Handler) GetProperty(c *gin.Context) {
	prop, err := h.gateway.Load(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

func (h *Handler) ListProperties(c *gin.Context) {
	properties, err := h.deps.Store.ListProperties(c.Request.Context(), tenantID(c), c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) ListStates(c *gin.Context) {
	c.JSON(http.StatusOK, config.SupportedStates)
}

func (h *Handler) respondState(c *gin.Context, ctrl *wizard.Controller, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}
