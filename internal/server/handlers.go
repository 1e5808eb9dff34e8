package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/crud"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/httputil"
)

const internalErrorDetail = "an unexpected error occurred"

// resource binds one entity's CRUD service to its wire types.
//
// E and P are the model and patch types, W the public record, C the create
// request and U the update request.
type resource[E crud.Entity, P crud.Patch, W, C, U any] struct {
	// path is the collection path, e.g. "/order_details".
	path string
	// kind names the entity in handler names, e.g. "OrderDetail".
	kind string
	// noun names the entity in problem details, e.g. "order detail".
	noun string

	service    *crud.Service[E, P]
	fromCreate func(C) (E, []httputil.ValidationError)
	toPatch    func(U) P
	toPublic   func(E) W
}

func mountResource[E crud.Entity, P crud.Patch, W, C, U any](r chi.Router, res resource[E, P, W, C, U]) {
	r.Route(res.path, func(r chi.Router) {
		r.Get("/", res.handleList)
		r.Post("/", res.handleCreate)
		r.Get("/{id}", res.handleGet)
		r.Put("/{id}", res.handleUpdate)
		r.Delete("/{id}", res.handleDelete)
	})
}

// handleList returns every record as a JSON array, [] when there are none.
func (res resource[E, P, W, C, U]) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx).With().Str("handler", "List"+res.kind+"s").Logger()

	items, err := res.service.ReadAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msgf("failed to list %ss", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return
	}

	out := make([]W, len(items))
	for i, item := range items {
		out[i] = res.toPublic(item)
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

// handleCreate stores a new record and returns it with its assigned id.
func (res resource[E, P, W, C, U]) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx).With().Str("handler", "Create"+res.kind).Logger()

	var req C
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, r, err)
		return
	}

	m, errs := res.fromCreate(req)
	if len(errs) > 0 {
		httputil.RespondValidationProblem(w, r, errs)
		return
	}

	created, err := res.service.Create(ctx, m)
	if err != nil {
		logger.Error().Err(err).Msgf("failed to create %s", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, res.toPublic(created))
}

func (res resource[E, P, W, C, U]) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx).With().Str("handler", "Get"+res.kind).Logger()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, found, err := res.service.ReadOne(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msgf("failed to get %s", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return
	}
	if !found {
		res.respondNotFound(w, r, id)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, res.toPublic(item))
}

// handleUpdate applies a partial update. Only fields present in the body
// change. The record must exist before the update is attempted.
func (res resource[E, P, W, C, U]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx).With().Str("handler", "Update"+res.kind).Logger()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req U
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, r, err)
		return
	}

	if !res.exists(w, r, id) {
		return
	}

	updated, found, err := res.service.Update(ctx, id, res.toPatch(req))
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msgf("failed to update %s", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return
	}
	if !found {
		// Deleted between the existence check and the update.
		res.respondNotFound(w, r, id)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, res.toPublic(updated))
}

// handleDelete removes a record. The record must exist before the delete is
// attempted.
func (res resource[E, P, W, C, U]) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx).With().Str("handler", "Delete"+res.kind).Logger()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if !res.exists(w, r, id) {
		return
	}

	if err := res.service.Delete(ctx, id); err != nil {
		logger.Error().Err(err).Int64("id", id).Msgf("failed to delete %s", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return
	}

	httputil.RespondNoContent(w)
}

// exists reports whether id is present and writes the error response when it
// is not.
func (res resource[E, P, W, C, U]) exists(w http.ResponseWriter, r *http.Request, id int64) bool {
	_, found, err := res.service.ReadOne(r.Context(), id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("id", id).Msgf("failed to look up %s", res.noun)
		httputil.RespondProblem(w, r, http.StatusInternalServerError, internalErrorDetail)
		return false
	}
	if !found {
		res.respondNotFound(w, r, id)
		return false
	}
	return true
}

func (res resource[E, P, W, C, U]) respondNotFound(w http.ResponseWriter, r *http.Request, id int64) {
	httputil.RespondProblemf(w, r, http.StatusNotFound, "%s %d not found", res.noun, id)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.RespondProblem(w, r, http.StatusBadRequest,
			fmt.Sprintf("invalid id %q: must be an integer", raw))
		return 0, false
	}
	return id, true
}
