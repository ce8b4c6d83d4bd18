package http

import (
	"net/http"

	"saldo/internal/core"
	"saldo/internal/log"
)

func (s *Server) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	salary, err := ParseSalaryForm(r.PostForm)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := st.UpdateSalary(r.Context(), salary); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Salary updated",
		log.FieldOwner, st.Owner(),
		log.FieldAmountCents, salary.Cents,
		log.FieldOperation, log.OpUpdate)

	s.respondMutation(w, r, "Salary updated to "+s.format.Money(salary))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	if err := core.ValidateCategoryName(name); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	added, err := st.AddCategory(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !added {
		s.respondNotice(w, r, "Category "+name+" already exists")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Category added",
		log.FieldOwner, st.Owner(),
		log.FieldCategory, name,
		log.FieldOperation, log.OpCreate)

	s.respondMutation(w, r, "Category "+name+" added")
}
