package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		api = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(app.recoverPanic(noCache(app.timeout(next))))
		}
		user = func(next http.HandlerFunc) http.Handler {
			return api(app.withUser(next))
		}
	)

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /metrics", app.logAndTraceRequest(promhttp.Handler()))

	mux.Handle("GET /users/{userID}/profile", user(app.profileGET))
	mux.Handle("PUT /users/{userID}/profile", user(app.profilePUT))
	mux.Handle("POST /users/{userID}/feedback", user(app.feedbackPOST))
	mux.Handle("POST /users/{userID}/workouts", user(app.workoutPOST))
	mux.Handle("GET /users/{userID}/motivation", user(app.motivationGET))
	mux.Handle("GET /users/{userID}/frequency", user(app.frequencyGET))
	mux.Handle("GET /users/{userID}/dashboard", user(app.dashboardGET))

	mux.Handle("/", api(http.HandlerFunc(app.notFound)))

	return mux
}
