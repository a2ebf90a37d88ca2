package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/service"
	"github.com/japb1998/contacts/internal/validation"
)

type ContactController struct {
	svc    *service.ContactService
	logger *zap.Logger
	tracer trace.Tracer
}

func NewContactController(svc *service.ContactService, logger *zap.Logger) *ContactController {
	return &ContactController{
		svc:    svc,
		logger: logger.Named("contact-controller"),
		tracer: otel.Tracer("github.com/japb1998/contacts/internal/controller"),
	}
}

// ListContacts list contacts with filters.
// @Tags CONTACT
// @Summary list contacts.
// @Schemes
// @Description list contacts, newest first, with optional search and category filters.
// @Param page query int false "page number. One indexed" default(1)
// @Param limit query int false "max number of records, up to 5000." default(10)
// @Param search query string false "case insensitive match on name, email or phone"
// @Param category query string false "All, Work, Family, Friends or Other"
// @Produce json
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /contacts [get]
func (cc *ContactController) ListContacts(c *gin.Context) {
	ctx, span := cc.tracer.Start(c.Request.Context(), "list-contacts-controller")
	defer span.End()

	var q dto.ListContactsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		cc.logger.Debug("invalid list query", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	query := service.ListQuery{
		Page:     q.PageOrDefault(),
		Limit:    q.LimitOrDefault(),
		Search:   q.Search,
		Category: q.Category,
	}
	span.SetAttributes(attribute.Int("page", query.Page), attribute.Int("limit", query.Limit))

	page, err := cc.svc.List(ctx, query)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Success:    true,
		Data:       page.Contacts,
		Pagination: page.Pagination,
	})
}

// GetContact get contact by ID.
// @Tags CONTACT
// @Summary get contact by ID.
// @Schemes
// @Description get contact by ID.
// @Param id path string true "Contact ID"
// @Produce json
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /contacts/{id} [get]
func (cc *ContactController) GetContact(c *gin.Context) {
	var uri dto.ContactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	contact, err := cc.svc.Get(c.Request.Context(), uri.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ContactResponse{Success: true, Data: contact})
}

// CreateContact create contact.
// @Tags CONTACT
// @Summary create contact.
// @Schemes
// @Description create contact. Emails are unique.
// @Param request body dto.CreateContact true "create contact dto"
// @Accept json
// @Produce json
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /contacts [post]
func (cc *ContactController) CreateContact(c *gin.Context) {
	var body dto.CreateContact
	if err := c.ShouldBindJSON(&body); err != nil {
		cc.logger.Debug("CreateContact validation error", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	contact, err := cc.svc.Create(c.Request.Context(), body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.ContactResponse{
		Success: true,
		Message: "Contact created successfully",
		Data:    contact,
	})
}

// UpdateContact update contact.
// @Tags CONTACT
// @Summary update contact.
// @Schemes
// @Description update contact. Only the provided fields change.
// @Param id path string true "Contact ID"
// @Param request body dto.UpdateContact true "update contact dto"
// @Accept json
// @Produce json
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /contacts/{id} [put]
func (cc *ContactController) UpdateContact(c *gin.Context) {
	var uri dto.ContactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	var body dto.UpdateContact
	if err := c.ShouldBindJSON(&body); err != nil {
		cc.logger.Debug("UpdateContact validation error", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	contact, err := cc.svc.Update(c.Request.Context(), uri.ID, body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ContactResponse{
		Success: true,
		Message: "Contact updated successfully",
		Data:    contact,
	})
}

// DeleteContact delete contact by ID.
// @Tags CONTACT
// @Summary delete contact by ID.
// @Schemes
// @Description delete contact by ID.
// @Param id path string true "Contact ID"
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /contacts/{id} [delete]
func (cc *ContactController) DeleteContact(c *gin.Context) {
	var uri dto.ContactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	if err := cc.svc.Delete(c.Request.Context(), uri.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Contact deleted successfully",
	})
}

// BulkDeleteContacts delete many contacts.
// @Tags CONTACT
// @Summary delete many contacts.
// @Schemes
// @Description delete up to 100 contacts. Succeeds when at least one was deleted.
// @Param request body dto.BulkDelete true "ids to delete"
// @Accept json
// @Produce json
// @Success 200 {object} dto.BulkDeleteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /contacts/bulk-delete [post]
func (cc *ContactController) BulkDeleteContacts(c *gin.Context) {
	ctx, span := cc.tracer.Start(c.Request.Context(), "bulk-delete-controller")
	defer span.End()

	var body dto.BulkDelete
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	span.SetAttributes(attribute.Int("ids", len(body.IDs)))

	res, err := cc.svc.BulkDelete(ctx, body.IDs)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.BulkDeleteResponse{Success: true, BulkDeleteResult: res})
}

// bindError turns a binding failure into a validation error, leaving
// oversized bodies alone so they map to 413.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &errs.ValidationError{Fields: validation.Errors(err)}
}
