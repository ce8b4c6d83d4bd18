package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	today := time.Now().UTC()
	exp, err := ParseExpenseForm(r.PostForm, core.NewDate(today.Year(), int(today.Month()), today.Day()))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	created, err := st.AddExpense(r.Context(), exp)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldOwner, created.Owner,
		log.FieldRecordID, created.ID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategory, created.Category,
		log.FieldOperation, log.OpCreate)

	s.respondMutation(w, r, "Expense added: "+created.Description+" "+s.format.Money(created.Amount))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("Missing expense id").Write(w)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := st.DeleteExpense(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOwner, st.Owner(),
		log.FieldRecordID, id,
		log.FieldOperation, log.OpDelete)

	s.respondMutation(w, r, "Expense deleted")
}
