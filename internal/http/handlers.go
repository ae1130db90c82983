package http

import (
	"net/http"

	"fintrack/internal/feed"
	"fintrack/internal/services"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}

	if r.Method == http.MethodPost {
		s.createTransaction(w, r, userID)
		return
	}

	params, err := ParseListParams(r.URL.Query(), s.now())
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	res, err := s.svc.List(r.Context(), services.ListRequest{
		UserID:   userID,
		Criteria: params.Criteria,
		Sort:     params.Sort,
		Search:   params.Search,
	})
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := DecodeNewTransaction(r, s.now())
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	t, err := s.svc.Create(r.Context(), userID, n)
	if err != nil {
		FromError(r, err, http.StatusUnprocessableEntity).Write(w)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Data(t).
		Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	d, err := s.svc.Dashboard(r.Context(), userID, r.URL.Query().Get("timeframe"))
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	NewJSONResponse().Data(dashboardResponse{Dashboard: d, SavingsRateLabel: d.Stats.SavingsRateLabel()}).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	q := r.URL.Query()
	a, err := s.svc.Analytics(r.Context(), userID, q.Get("timeframe"), q.Get("metric"))
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	NewJSONResponse().Data(a).Write(w)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	params, err := ParseListParams(r.URL.Query(), s.now())
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	rep, err := s.svc.Report(r.Context(), userID, params.Criteria, params.Sort)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	list, unread := s.svc.Notifications(userID)
	if list == nil {
		list = []feed.Notification{}
	}
	NewJSONResponse().Data(notificationsResponse{Notifications: list, Unread: unread}).Write(w)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	userID, err := s.userID(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	id, err := DecodeMarkRead(r)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	n, err := s.svc.MarkRead(userID, id)
	if err != nil {
		FromError(r, err, http.StatusBadRequest).Write(w)
		return
	}
	_, unread := s.svc.Notifications(userID)
	NewJSONResponse().Data(markReadResponse{Updated: n, Unread: unread}).Write(w)
}
