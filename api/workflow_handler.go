package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/engine"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/ledger"
	"github.com/venu630/bequest/workflow"
)

func (a *API) listWorkflows(c *fiber.Ctx) error {
	var req ListRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest("invalid query: " + err.Error())
	}
	if err := a.check(&req); err != nil {
		return err
	}

	states, err := a.eng.ListSessions(c.UserContext(), workflow.ListOpts{
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
		State:  workflow.RunState(req.State),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessions": states})
}

func (a *API) startWorkflow(c *fiber.Ctx) error {
	var req StartWorkflowRequest
	if err := a.parse(c, &req); err != nil {
		return err
	}

	sess, err := a.eng.Start(c.UserContext(), engine.StartParams{
		Definition: req.Definition,
		Count:      string(req.Count),
		Owner:      req.Owner,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (a *API) getWorkflow(c *fiber.Ctx) error {
	sid, err := sessionParam(c)
	if err != nil {
		return err
	}
	sess, err := a.eng.Get(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (a *API) updateWorkflow(c *fiber.Ctx) error {
	sid, err := sessionParam(c)
	if err != nil {
		return err
	}
	var req UpdateDraftRequest
	if err := a.parse(c, &req); err != nil {
		return err
	}

	sess, err := a.eng.Update(c.UserContext(), sid, req.Fields)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (a *API) submitWorkflow(c *fiber.Ctx) error {
	sid, err := sessionParam(c)
	if err != nil {
		return err
	}

	sess, err := a.eng.Submit(c.UserContext(), sid)
	if err != nil && sess != nil && errors.Is(err, bequest.ErrLedger) {
		return c.Status(fiber.StatusBadGateway).JSON(SubmitResponse{
			Session: sess,
			Error:   err.Error(),
			Kind:    string(ledger.KindOf(err)),
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (a *API) previousWorkflow(c *fiber.Ctx) error {
	sid, err := sessionParam(c)
	if err != nil {
		return err
	}
	sess, err := a.eng.Previous(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (a *API) abandonWorkflow(c *fiber.Ctx) error {
	sid, err := sessionParam(c)
	if err != nil {
		return err
	}
	sess, err := a.eng.Abandon(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func sessionParam(c *fiber.Ctx) (id.SessionID, error) {
	sid, err := id.ParseSessionID(c.Params("sessionId"))
	if err != nil {
		return id.Nil, badRequest("invalid session ID: " + err.Error())
	}
	return sid, nil
}

func defaultLimit(n int) int {
	if n <= 0 {
		return 50
	}
	return n
}
