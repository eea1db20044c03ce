package backend_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldline/planview/internal/backend"
	"github.com/fieldline/planview/pkg/logger"
)

func backendTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[backend-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	return log
}

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	BeforeEach(func() {
		ctx = context.Background()
	})

	newClient := func(handler http.Handler) *backend.Client {
		server = httptest.NewServer(handler)
		return backend.NewClient(server.URL, "anon-key", "user-token", backendTestLogger())
	}

	It("should send auth headers on every request", func() {
		var gotAPIKey, gotAuth string
		client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAPIKey = r.Header.Get("apikey")
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `[]`)
		}))

		_, err := client.ListProjects(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotAPIKey).To(Equal("anon-key"))
		Expect(gotAuth).To(Equal("Bearer user-token"))
	})

	It("should list drawings filtered by project", func() {
		client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/rest/v1/drawings"))
			Expect(r.URL.Query().Get("project_id")).To(Equal("eq.proj-1"))
			fmt.Fprint(w, `[{"id":"d1","project_id":"proj-1","title":"A-101","page_count":2}]`)
		}))

		drawings, err := client.ListDrawings(ctx, "proj-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(drawings).To(HaveLen(1))
		Expect(drawings[0].Title).To(Equal("A-101"))
		Expect(drawings[0].PageCount).To(Equal(2))
	})

	It("should return ErrNotFound for an unknown drawing", func() {
		client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))

		_, err := client.GetDrawing(ctx, "ghost")
		Expect(err).To(MatchError(backend.ErrNotFound))
	})

	It("should sign storage URLs", func() {
		client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/storage/v1/object/sign/drawings/proj-1/A-101.pdf"))
			fmt.Fprint(w, `{"signedURL":"/object/sign/drawings/proj-1/A-101.pdf?token=abc"}`)
		}))

		signed, err := client.SignURL(ctx, "drawings", "proj-1/A-101.pdf", time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(signed).To(Equal(server.URL + "/storage/v1/object/sign/drawings/proj-1/A-101.pdf?token=abc"))
	})

	It("should delete all annotations for a drawing", func() {
		var method, query string
		client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			query = r.URL.RawQuery
			w.WriteHeader(http.StatusNoContent)
		}))

		Expect(client.DeleteAnnotations(ctx, "d1")).To(Succeed())
		Expect(method).To(Equal(http.MethodDelete))
		Expect(query).To(ContainSubstring("drawing_id=eq.d1"))
	})

	Context("retries", func() {
		It("should retry on 5xx and succeed", func() {
			var calls int32
			client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				fmt.Fprint(w, `[]`)
			}))

			_, err := client.ListProjects(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(3)))
		})

		It("should give up after the retry budget", func() {
			var calls int32
			client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusInternalServerError)
			}))

			_, err := client.ListProjects(ctx)
			Expect(err).To(HaveOccurred())
			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(backend.MaxRetries)))
		})

		It("should not retry auth failures", func() {
			var calls int32
			client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusUnauthorized)
			}))

			_, err := client.ListProjects(ctx)
			Expect(err).To(MatchError(backend.ErrUnauthorized))
			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
		})
	})

	Context("downloads", func() {
		It("should stream a URL to disk atomically", func() {
			content := []byte("%PDF-1.4 fake drawing bytes")
			client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(content)
			}))

			dir, err := os.MkdirTemp("", "planview-dl-*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dir)

			dest := filepath.Join(dir, "sheet.pdf")
			Expect(client.Download(ctx, server.URL+"/file", dest)).To(Succeed())

			got, err := os.ReadFile(dest)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(content))

			// No leftover partial file.
			_, err = os.Stat(dest + ".partial")
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should fail on a non-200 response", func() {
			client := newClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))

			dir, err := os.MkdirTemp("", "planview-dl-*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dir)

			err = client.Download(ctx, server.URL+"/missing", filepath.Join(dir, "x.pdf"))
			Expect(err).To(HaveOccurred())
		})
	})
})
