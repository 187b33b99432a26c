package api

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/pin"
)

// documentField is the multipart field carrying uploaded files.
const documentField = "file"

func (a *API) pinDocuments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("expected a multipart form: " + err.Error())
	}
	files := form.File[documentField]
	if len(files) == 0 {
		return badRequest("no files in field " + documentField)
	}

	docs := make([]pin.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close() //nolint:errcheck // read-only
		if err != nil {
			return fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		docs = append(docs, pin.Document{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		})
	}

	refs, err := a.eng.PinDocuments(c.UserContext(), docs)
	if err != nil {
		return err
	}

	out := DocumentsResponse{Documents: make([]DocumentResponse, len(refs))}
	for i, ref := range refs {
		out.Documents[i] = DocumentResponse{Name: docs[i].Name, Ref: ref}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (a *API) sendNotification(c *fiber.Ctx) error {
	var req notify.Request
	if err := a.parse(c, &req); err != nil {
		return err
	}

	res, err := a.eng.Notify(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(NotificationResponse{Success: res.Success, MessageID: res.MessageID})
}
