package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// CallbackPrefix is the prefix of all review button callback data.
const CallbackPrefix = "review_"

// Review actions carried in callback data.
const (
	ActionApproveDeposit    = "dep-ok"
	ActionRejectDeposit     = "dep-no"
	ActionApproveWithdrawal = "wd-ok"
	ActionRejectWithdrawal  = "wd-no"
)

// EncodeCallback encodes an action and request id into callback data.
func EncodeCallback(action string, requestID int64) string {
	return fmt.Sprintf("%s%s_%d", CallbackPrefix, action, requestID)
}

// DecodeCallback decodes callback data into action and request id.
// Telebot may prefix data with \f, which is ignored.
func DecodeCallback(data string) (action string, requestID int64, ok bool) {
	data = strings.TrimPrefix(data, "\f")
	content, found := strings.CutPrefix(data, CallbackPrefix)
	if !found {
		return "", 0, false
	}
	action, idStr, found := strings.Cut(content, "_")
	if !found {
		return "", 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	switch action {
	case ActionApproveDeposit, ActionRejectDeposit, ActionApproveWithdrawal, ActionRejectWithdrawal:
		return action, id, true
	}
	return "", 0, false
}

// BuildDepositPanel builds the approve/reject buttons of a deposit alert.
func BuildDepositPanel(requestID int64) *tele.ReplyMarkup {
	return buildReviewPanel(
		EncodeCallback(ActionApproveDeposit, requestID),
		EncodeCallback(ActionRejectDeposit, requestID),
	)
}

// BuildWithdrawalPanel builds the approve/reject buttons of a withdrawal alert.
func BuildWithdrawalPanel(requestID int64) *tele.ReplyMarkup {
	return buildReviewPanel(
		EncodeCallback(ActionApproveWithdrawal, requestID),
		EncodeCallback(ActionRejectWithdrawal, requestID),
	)
}

func buildReviewPanel(approveData, rejectData string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		tele.Btn{Text: "✅ Approve", Data: approveData},
		tele.Btn{Text: "❌ Reject", Data: rejectData},
	))
	return markup
}
