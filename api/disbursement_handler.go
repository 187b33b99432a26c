package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest/disburse"
)

func (a *API) disburse(c *fiber.Ctx) error {
	var req DisbursementRequest
	if err := a.parse(c, &req); err != nil {
		return err
	}

	evt, err := a.eng.Disburse(c.UserContext(), disburse.FundsDisbursed{
		Beneficiary: req.Beneficiary,
		Amount:      req.Amount,
		DocumentRef: req.DocumentRef,
		Email:       req.Email,
		TxHash:      req.TxHash,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(DisbursementResponse{EventID: evt.ID.String()})
}
