package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/coaching"
)

const dateLayout = "2006-01-02"

func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type profileRequest struct {
	FitnessLevel     string `json:"fitnessLevel"`
	WorkoutFrequency string `json:"workoutFrequency"`
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.coach.GetProfile(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

func (app *application) profilePUT(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	p, err := app.coach.SaveProfile(r.Context(), coaching.ProfileSettings{
		FitnessLevel:     adaptive.Tier(req.FitnessLevel),
		WorkoutFrequency: adaptive.Preference(req.WorkoutFrequency),
	})
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (app *application) feedbackPOST(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	feedback, err := adaptive.ParseFeedback(req.Feedback)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	settings, err := app.coach.SubmitFeedback(r.Context(), feedback)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, settings)
}

type workoutRequest struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Rating    *int   `json:"rating"`
}

func (app *application) workoutPOST(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		app.handleError(w, r, fmt.Errorf("%w: date %q is not YYYY-MM-DD", coaching.ErrInvalidWorkout, req.Date))
		return
	}
	if err = app.coach.RecordWorkout(r.Context(), coaching.WorkoutLog{
		Date:      date,
		Completed: req.Completed,
		Rating:    req.Rating,
	}); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) motivationGET(w http.ResponseWriter, r *http.Request) {
	msg, err := app.coach.Motivation(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": msg})
}

func (app *application) frequencyGET(w http.ResponseWriter, r *http.Request) {
	freq, err := app.coach.Frequency(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, freq)
}

func (app *application) dashboardGET(w http.ResponseWriter, r *http.Request) {
	d, err := app.coach.Dashboard(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, d)
}
