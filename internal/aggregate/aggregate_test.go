package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/gobrochure/internal/fetch"
	"github.com/hyperifyio/gobrochure/internal/links"
	"github.com/hyperifyio/gobrochure/internal/website"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(title, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, "<html><head><title>%s</title></head><body>%s</body></html>", title, body)
		}
	}
	mux.HandleFunc("/about", page("About Acme", "<p>Founded in 1949.</p>"))
	mux.HandleFunc("/careers", page("Jobs at Acme", "<p>We are hiring engineers.</p>"))
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html><body>broken-secret</body></html>"))
	})
	mux.HandleFunc("/", page("Acme", `<p>Acme home</p><a href="/about">About</a><a href="/careers">Careers</a><a href="https://x.com/legal/terms">Legal</a>`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func scraper() *website.Scraper {
	return &website.Scraper{Getter: &fetch.Client{}}
}

func TestAggregate_LandingAndSelectedSections(t *testing.T) {
	srv := newSite(t)
	s := scraper()
	landing, err := s.Scrape(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("landing: %v", err)
	}
	wantLinks := []string{"/about", "/careers", "https://x.com/legal/terms"}
	if strings.Join(landing.Links, ",") != strings.Join(wantLinks, ",") {
		t.Fatalf("landing links=%v", landing.Links)
	}

	sel := links.Selection{Links: []links.Link{
		{Type: "About", URL: "/about"},
		{Type: "Careers", URL: "/careers"},
	}}
	c := Aggregate(context.Background(), s, landing, sel)

	if n := strings.Count(c.Text, "Landing page:"); n != 1 {
		t.Fatalf("expected one landing header, got %d", n)
	}
	if !strings.HasPrefix(c.Text, "Landing page:\nWebpage Title:\nAcme\n") {
		t.Fatalf("unexpected buffer start: %q", c.Text)
	}
	for _, want := range []string{"\n\nAbout:\nWebpage Title:\nAbout Acme", "Founded in 1949.", "\n\nCareers:\nWebpage Title:\nJobs at Acme", "We are hiring engineers."} {
		if !strings.Contains(c.Text, want) {
			t.Fatalf("expected %q in buffer:\n%s", want, c.Text)
		}
	}
	if strings.Contains(c.Text, "Terms:") {
		t.Fatalf("did not expect a Terms section:\n%s", c.Text)
	}
	if strings.Index(c.Text, "About:") > strings.Index(c.Text, "Careers:") {
		t.Fatalf("sections should follow selection order")
	}
	if len(c.Sections) != 3 || c.Sections[0].Type != LandingLabel || c.Sections[1].URL != srv.URL+"/about" {
		t.Fatalf("unexpected sections: %+v", c.Sections)
	}
	if len(c.Skipped) != 0 {
		t.Fatalf("unexpected skipped: %+v", c.Skipped)
	}
}

func TestAggregate_OmitsFailedSubPages(t *testing.T) {
	srv := newSite(t)
	s := scraper()
	landing, _ := s.Scrape(context.Background(), srv.URL+"/")

	sel := links.Selection{Links: []links.Link{
		{Type: "Broken", URL: srv.URL + "/broken"},
		{Type: "Mail", URL: "mailto:hi@acme.example"},
		{Type: "About", URL: "/about"},
	}}
	c := Aggregate(context.Background(), s, landing, sel)

	if strings.Contains(c.Text, "Broken:") || strings.Contains(c.Text, "broken-secret") || strings.Contains(c.Text, "Error loading page") {
		t.Fatalf("failed page leaked into buffer:\n%s", c.Text)
	}
	if strings.Contains(c.Text, "Mail:") {
		t.Fatalf("mailto link should be skipped:\n%s", c.Text)
	}
	if !strings.Contains(c.Text, "About:") {
		t.Fatalf("later links should still be processed:\n%s", c.Text)
	}
	if len(c.Skipped) != 2 || c.Skipped[0].Link.Type != "Broken" || c.Skipped[0].Err == nil {
		t.Fatalf("unexpected skipped: %+v", c.Skipped)
	}
	if n := strings.Count(c.Text, "Landing page:"); n != 1 {
		t.Fatalf("expected one landing header, got %d", n)
	}
}

func TestAggregate_EmptySelection(t *testing.T) {
	landing := website.Page{URL: "https://acme.example", Title: "Acme", Text: "Hello"}
	c := Aggregate(context.Background(), scraper(), landing, links.Empty())
	want := "Landing page:\nWebpage Title:\nAcme\nWebpage Contents:\nHello\n\n"
	if c.Text != want {
		t.Fatalf("got %q, want %q", c.Text, want)
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct{ base, ref, want string }{
		{"https://acme.example/", "/about", "https://acme.example/about"},
		{"https://acme.example/en/home", "careers", "https://acme.example/en/careers"},
		{"https://acme.example/", "https://jobs.acme.example/#top", "https://jobs.acme.example/"},
	}
	for _, tc := range cases {
		got, err := ResolveURL(tc.base, tc.ref)
		if err != nil || got != tc.want {
			t.Fatalf("ResolveURL(%q,%q)=%q,%v want %q", tc.base, tc.ref, got, err, tc.want)
		}
	}
	if _, err := ResolveURL("not a url", "/about"); err == nil {
		t.Fatalf("expected error for relative base")
	}
}
