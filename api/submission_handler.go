package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/submission"
)

func (a *API) listSubmissions(c *fiber.Ctx) error {
	var req ListRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest("invalid query: " + err.Error())
	}
	if err := a.check(&req); err != nil {
		return err
	}

	subs, err := a.eng.ListSubmissions(c.UserContext(), submission.ListOpts{
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
		State:  submission.State(req.State),
	})
	if err != nil {
		return err
	}
	return c.JSON(SubmissionsResponse{Submissions: subs})
}

func (a *API) getSubmission(c *fiber.Ctx) error {
	subID, err := submissionParam(c)
	if err != nil {
		return err
	}
	sub, err := a.eng.Submission(c.UserContext(), subID)
	if err != nil {
		return err
	}
	return c.JSON(sub)
}

func (a *API) resubmit(c *fiber.Ctx) error {
	subID, err := submissionParam(c)
	if err != nil {
		return err
	}
	sub, err := a.eng.Resubmit(c.UserContext(), subID)
	if err != nil {
		return err
	}
	return c.JSON(sub)
}

func submissionParam(c *fiber.Ctx) (id.SubmissionID, error) {
	subID, err := id.ParseSubmissionID(c.Params("submissionId"))
	if err != nil {
		return id.Nil, badRequest("invalid submission ID: " + err.Error())
	}
	return subID, nil
}
