package http

import (
	"net/http"

	"saldo/internal/log"
)

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	f, err := ParseFixedForm(r.PostForm)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	created, err := st.AddFixedExpense(r.Context(), f)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Fixed expense created",
		log.FieldOwner, created.Owner,
		log.FieldRecordID, created.ID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldOperation, log.OpCreate)

	s.respondMutation(w, r, "Fixed expense added: "+created.Task)
}

func (s *Server) handleToggleFixed(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	updated, err := st.ToggleFixedExpense(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Fixed expense toggled",
		log.FieldOwner, updated.Owner,
		log.FieldRecordID, updated.ID,
		"completed", updated.Completed,
		log.FieldOperation, log.OpUpdate)

	msg := updated.Task + " marked as pending"
	if updated.Completed {
		msg = updated.Task + " marked as paid"
	}
	s.respondMutation(w, r, msg)
}

func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("Missing fixed expense id").Write(w)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := st.DeleteFixedExpense(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Fixed expense deleted",
		log.FieldOwner, st.Owner(),
		log.FieldRecordID, id,
		log.FieldOperation, log.OpDelete)

	s.respondMutation(w, r, "Fixed expense deleted")
}
