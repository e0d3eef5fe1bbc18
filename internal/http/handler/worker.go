package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"chorus/internal/cleanup"
	"chorus/internal/engage"
	"chorus/internal/lifecycle"
)

// WorkerHandler hosts the task callback endpoints. Contract shared by all of
// them: 200 means success or benign skip, 400 means a payload that will never
// parse (do not redeliver), 500 means transient failure (the queue retries).
// 403 is produced earlier, by the callback verifier middleware.
type WorkerHandler struct {
	Orchestrator *engage.Orchestrator
	Writer       *engage.Writer
	Cleanup      *cleanup.Processor
	Monitor      *lifecycle.Monitor
}

func (h *WorkerHandler) EngageFanOut(w http.ResponseWriter, r *http.Request) {
	var p engage.FanOutPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.PostID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if err := h.Orchestrator.FanOut(r.Context(), p.PostID); err != nil {
		log.Printf("fanout task for post %d: %v\n", p.PostID, err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WorkerHandler) EngageComment(w http.ResponseWriter, r *http.Request) {
	var p engage.CommentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.PostID == 0 || p.ActorID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if err := h.Writer.WriteComment(r.Context(), p); err != nil {
		log.Printf("comment task post=%d actor=%d: %v\n", p.PostID, p.ActorID, err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WorkerHandler) EngageReaction(w http.ResponseWriter, r *http.Request) {
	var p engage.ReactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.PostID == 0 || p.ActorID == 0 || p.Emoji == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if err := h.Writer.WriteReaction(r.Context(), p); err != nil {
		log.Printf("reaction task post=%d actor=%d: %v\n", p.PostID, p.ActorID, err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WorkerHandler) CleanupGroup(w http.ResponseWriter, r *http.Request) {
	var p cleanup.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GroupID == 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if err := h.Cleanup.Process(r.Context(), p); err != nil {
		log.Printf("cleanup task group=%d: %v\n", p.GroupID, err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LifecycleSweep runs one sweep and chains the next one before returning, so
// the schedule survives regardless of this run's findings.
func (h *WorkerHandler) LifecycleSweep(w http.ResponseWriter, r *http.Request) {
	if err := h.Monitor.Sweep(r.Context()); err != nil {
		log.Printf("lifecycle sweep: %v\n", err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	if err := h.Monitor.Schedule(r.Context()); err != nil {
		log.Printf("lifecycle reschedule: %v\n", err)
		http.Error(w, "retry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
