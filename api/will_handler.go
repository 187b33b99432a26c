package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest/engine"
)

func (a *API) getWill(c *fiber.Ctx) error {
	owner := c.Params("owner")
	if err := a.validate.Var(owner, "required,eth_addr"); err != nil {
		return badRequest("invalid owner address")
	}

	status, err := a.eng.Will(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (a *API) createWill(c *fiber.Ctx) error {
	var req CreateWillRequest
	if err := a.parse(c, &req); err != nil {
		return err
	}

	status, err := a.eng.CreateWill(c.UserContext(), engine.WillParams{
		Owner:            req.Owner,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		BeneficiaryCount: string(req.BeneficiaryCount),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(status)
}
