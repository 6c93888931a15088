package httpapi

import (
	"net/http"

	"github.com/NordCoder/Tasker/internal/domain/task"
)

type createTodoRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=500"`
}

type updateTodoRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	todos, err := s.tasks.List(r.Context(), p.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string][]*task.Task{"todos": todos})
	return nil
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	var req createTodoRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	t, err := s.tasks.Create(r.Context(), p.ID, req.Title, req.Description)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string     `json:"message"`
		Todo    *task.Task `json:"todo"`
	}{"Todo Created Successfully.", t})
	return nil
}

func (s *Server) getTodo(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	t, err := s.tasks.Get(r.Context(), p.ID, params["id"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]*task.Task{"todo": t})
	return nil
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	var req updateTodoRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	patch := task.Patch{Title: nonEmpty(req.Title), Description: nonEmpty(req.Description), Completed: req.Completed}
	if _, err := s.tasks.Update(r.Context(), p.ID, params["id"], patch); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(r.Context(), p.ID, params["id"]); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
