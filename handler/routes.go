package handler

import (
	"github.com/go-chi/chi/v5"
)

// API groups the handlers mounted by Routes.
type API struct {
	Secret   []byte
	Users    *UserHandler
	Leads    *LeadHandler
	Projects *ProjectHandler
	Teams    *TeamHandler
	Reports  *ReportHandler
	Changes  *ChangeHandler
}

// Routes registers every authenticated endpoint on r.
func Routes(r chi.Router, api API) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(api.Secret))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", api.Users.List)
			r.Get("/me", api.Users.Me)
			r.With(RequireManager).Post("/", api.Users.Create)
			r.Get("/{id}", api.Users.GetByID)
			r.Put("/{id}", api.Users.Update)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", api.Leads.List)
			r.With(RequireManager).Post("/", api.Leads.Create)
			r.Get("/{id}", api.Leads.GetByID)
			r.With(RequireManager).Put("/{id}", api.Leads.Update)
			r.With(RequireManager).Delete("/{id}", api.Leads.Delete)
			r.Patch("/{id}/status", api.Leads.UpdateStatus)
			r.With(RequireManager).Patch("/{id}/assignee", api.Leads.Assign)
			r.Post("/{id}/touch", api.Leads.Touch)
			r.Get("/{id}/activities", api.Leads.Activities)
			r.Post("/{id}/activities", api.Leads.LogActivity)
		})

		r.Get("/pipeline", api.Leads.Pipeline)
		r.Get("/activities", api.Leads.RecentActivities)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", api.Projects.List)
			r.Get("/{id}", api.Projects.GetByID)
			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Post("/", api.Projects.Create)
				r.Put("/{id}", api.Projects.Update)
				r.Delete("/{id}", api.Projects.Delete)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", api.Teams.List)
			r.Get("/{id}/members", api.Teams.Members)
			r.With(RequireManager).Post("/", api.Teams.Create)
		})

		r.Route("/quotas", func(r chi.Router) {
			r.Get("/", api.Teams.Quotas)
			r.With(RequireManager).Put("/", api.Teams.SetQuota)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", api.Reports.Summary)
			r.Get("/stale", api.Reports.Stale)
			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Get("/performance", api.Reports.Performance)
				r.Get("/quotas", api.Reports.Quotas)
				r.Get("/projects", api.Reports.Projects)
			})
		})

		r.Get("/changes", api.Changes.Stream)
	})
}
