package agent

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"credit-sales/logging"
)

const applicationReceivedMessage = "Solicitud recibida correctamente. En breve recibirás una respuesta."

var applicationFields = []string{"full_name", "email", "phone", "amount", "term", "purpose"}

// ApplicationSubmitter forwards an application to the credit bureau API and
// returns its raw JSON answer.
type ApplicationSubmitter interface {
	SubmitApplication(ctx context.Context, application map[string]any) (json.RawMessage, error)
}

type applicationReceipt struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// CreditApplicationTool validates an application and submits it. With a nil
// submitter the application is acknowledged locally as pending.
func CreditApplicationTool(submitter ApplicationSubmitter, logger *zap.Logger) Tool {
	logger = logging.OrNop(logger)
	newID := uuid.NewString
	return Tool{
		Name:        ToolCreditApplication,
		Description: "Envía una solicitud de crédito a la API externa",
		Run: func(ctx context.Context, input string) string {
			data, msg := decodeObject(input, applicationFields)
			if msg != "" {
				return msg
			}
			if amount, err := parseNumber(data["amount"]); err != nil {
				return malformedField("amount", err)
			} else if !(amount > 0) {
				return "Error: El campo 'amount' no es válido: debe ser mayor que cero."
			}
			if term, err := parseInteger(data["term"]); err != nil {
				return malformedField("term", err)
			} else if term <= 0 {
				return "Error: El campo 'term' no es válido: debe ser mayor que cero."
			}

			application := make(map[string]any, len(data))
			for k, v := range data {
				application[k] = v
			}

			if submitter == nil {
				id := newID()
				logger.Info("credit application accepted locally", zap.String("application_id", id))
				out, _ := json.Marshal(applicationReceipt{
					ApplicationID: id,
					Status:        "pending",
					Message:       applicationReceivedMessage,
				})
				return string(out)
			}

			resp, err := submitter.SubmitApplication(ctx, application)
			if err != nil {
				logger.Error("credit application submission failed", zap.Error(err))
				return "Error al enviar la solicitud de crédito. Por favor, inténtalo de nuevo más tarde."
			}
			return string(resp)
		},
	}
}
