package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/localwire/portal/internal/contact"
	"github.com/localwire/portal/internal/content"
	"github.com/localwire/portal/internal/gateway"
)

// Service is a marketing catalog entry.
type Service struct {
	Name        string
	Category    string
	Price       string
	Description string
	Featured    bool
}

// catalog is the static marketing lineup. Plan management lives in the
// upstream account API; this is display copy only.
var catalog = []Service{
	{Name: "Cable Starter", Category: "Cable", Price: "₹250/mo", Description: "180+ SD channels for the family.", Featured: true},
	{Name: "Cable HD Plus", Category: "Cable", Price: "₹400/mo", Description: "250+ channels with HD sports and movies."},
	{Name: "Fiber 40", Category: "Internet", Price: "₹499/mo", Description: "40 Mbps unlimited fiber broadband.", Featured: true},
	{Name: "Fiber 100", Category: "Internet", Price: "₹799/mo", Description: "100 Mbps for streaming and work-from-home.", Featured: true},
	{Name: "Fiber 300", Category: "Internet", Price: "₹1199/mo", Description: "300 Mbps with a free dual-band router."},
	{Name: "Combo Home", Category: "Combo", Price: "₹899/mo", Description: "Cable HD Plus and Fiber 100 on one bill."},
}

func featured() []Service {
	var out []Service
	for _, svc := range catalog {
		if svc.Featured {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home.html", &templateData{
		PageTitle: "LocalWire — Cable TV & Fiber Internet",
		Services:  featured(),
	})
}

func (s *Server) services(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "services.html", &templateData{
		PageTitle: "Services",
		Services:  catalog,
	})
}

func (s *Server) staticPage(w http.ResponseWriter, r *http.Request) {
	page, ok := content.Get(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "page.html", &templateData{
		PageTitle: page.Title,
		Page:      page,
	})
}

func (s *Server) contactForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "contact.html", &templateData{PageTitle: "Contact"})
}

func (s *Server) contactSubmit(w http.ResponseWriter, r *http.Request) {
	form := contact.Form{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Contact: strings.TrimSpace(r.FormValue("contact")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}

	out, err := s.dispatcher.Dispatch(r.Context(), form)
	if err != nil {
		msg := "Could not send your message. Please try again."
		if errors.Is(err, contact.ErrUnknownChannel) {
			msg = err.Error()
		}
		s.render(w, r, "contact.html", &templateData{
			PageTitle: "Contact",
			Error:     msg,
			Form: map[string]string{
				"name":    form.Name,
				"contact": form.Contact,
				"message": form.Message,
			},
		})
		return
	}

	if out.Channel == contact.ChannelWhatsApp {
		http.Redirect(w, r, out.RedirectURL, http.StatusSeeOther)
		return
	}

	s.sessions.Success(r.Context(), "Message sent via Email!")
	s.render(w, r, "contact_sent.html", &templateData{
		PageTitle: "Message Sent",
		Ref:       out.Ref,
	})
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if s.store(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", &templateData{
		PageTitle: "Login",
		Next:      safeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	next := safeNext(r.FormValue("next"))

	res := s.store(r).Login(r.Context(), email, r.FormValue("password"))
	if !res.OK {
		s.render(w, r, "login.html", &templateData{
			PageTitle: "Login",
			Error:     res.Message,
			Next:      next,
			Form:      map[string]string{"email": email},
		})
		return
	}

	if next == "" {
		next = "/dashboard"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	if s.store(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "register.html", &templateData{PageTitle: "Register"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	profile := map[string]any{
		"name":     strings.TrimSpace(r.FormValue("name")),
		"email":    strings.TrimSpace(r.FormValue("email")),
		"phone":    strings.TrimSpace(r.FormValue("phone")),
		"password": r.FormValue("password"),
	}

	res := s.store(r).Register(r.Context(), profile)
	if !res.OK {
		s.render(w, r, "register.html", &templateData{
			PageTitle: "Register",
			Error:     res.Message,
			Form: map[string]string{
				"name":  r.FormValue("name"),
				"email": r.FormValue("email"),
				"phone": r.FormValue("phone"),
			},
		})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.store(r).Logout(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "dashboard.html", &templateData{PageTitle: "Dashboard"})
}

func (s *Server) profileForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "profile.html", &templateData{PageTitle: "My Profile"})
}

func (s *Server) profileUpdate(w http.ResponseWriter, r *http.Request) {
	partial := map[string]any{}
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		partial["name"] = v
	}
	if v := strings.TrimSpace(r.FormValue("email")); v != "" {
		partial["email"] = v
	}

	res := s.store(r).UpdateProfile(r.Context(), partial)
	if !res.OK {
		s.render(w, r, "profile.html", &templateData{
			PageTitle: "My Profile",
			Error:     res.Message,
		})
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) passwordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "password.html", &templateData{PageTitle: "Change Password"})
}

func (s *Server) passwordChange(w http.ResponseWriter, r *http.Request) {
	change := gateway.PasswordChange{
		Old: r.FormValue("old"),
		New: r.FormValue("new"),
	}
	if change.New != r.FormValue("confirm") {
		s.render(w, r, "password.html", &templateData{
			PageTitle: "Change Password",
			Error:     "New passwords do not match",
		})
		return
	}

	res := s.store(r).ChangePassword(r.Context(), change)
	if !res.OK {
		s.render(w, r, "password.html", &templateData{
			PageTitle: "Change Password",
			Error:     res.Message,
		})
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	res := s.store(r).RefreshToken(r.Context())
	if !res.OK {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.repo.GetMessages(r.Context())
	if err != nil {
		msgs = nil
	}
	s.render(w, r, "admin.html", &templateData{
		PageTitle: "Admin Dashboard",
		Messages:  msgs,
	})
}

// safeNext keeps post-login resumption on-site: relative paths only.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return ""
}
