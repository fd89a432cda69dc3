package services

import (
	"encoding/xml"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"

	"github.com/agentswap/backend/internal/models"
)

// TransferService renders the simulated transfer leg of a settlement as
// ISO 20022 messages: a pacs.008 credit transfer for the target amount and a
// pacs.002 status report confirming it. The pacs.008 message id doubles as
// the opaque transfer reference on the receipt.
type TransferService struct{}

func NewTransferService() *TransferService {
	return &TransferService{}
}

// Transfer emits the credit transfer for a freshly completed swap and
// returns the transfer reference.
func (ts *TransferService) Transfer(req *models.SwapRequest, payer string) (string, error) {
	doc, msgID, err := ts.createPacs008(req, payer)
	if err != nil {
		return "", models.NewSwapError(models.ErrTransferFailed,
			fmt.Sprintf("failed to build credit transfer for %s: %v", req.ID, err))
	}

	if err := ts.send(doc); err != nil {
		return "", models.NewSwapError(models.ErrTransferFailed,
			fmt.Sprintf("failed to send credit transfer for %s: %v", req.ID, err))
	}

	return msgID, nil
}

// Confirm emits the pacs.002 settlement confirmation for a transfer.
func (ts *TransferService) Confirm(req *models.SwapRequest, transferRef string) error {
	doc := ts.createPacs002(req, transferRef, "ACSC")
	return ts.send(doc)
}

func (ts *TransferService) send(doc interface{}) error {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}

	// The demo has no clearing house behind it; the message is the artifact.
	log.Printf("[TRANSFER] Sending to settlement: %s", string(xmlData))
	return nil
}

func (ts *TransferService) createPacs008(req *models.SwapRequest, payer string) (*pacs_v08.FIToFICustomerCreditTransferV08, string, error) {
	targetCurrency := targetCurrencyOf(req.Pair)
	if targetCurrency == "" {
		return nil, "", fmt.Errorf("pair %q has no target currency", req.Pair)
	}

	msgID := uuid.New().String()
	now := time.Now()
	amount := req.TargetAmount.InexactFloat64()

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgID),
			CreDtTm: common.ISODateTime(now),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(targetCurrency),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&now),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(req.ID)}[0],
					EndToEndId: common.Max35Text(req.ID),
					TxId:       &[]common.Max35Text{common.Max35Text(msgID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(targetCurrency),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&now),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("AGNTSWAP")}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text("agentswap settlement")}[0],
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(payer)}[0],
				},
			},
		},
	}

	return doc, msgID, nil
}

func (ts *TransferService) createPacs002(req *models.SwapRequest, transferRef, status string) *pacs_v08.FIToFIPaymentStatusReportV08 {
	msgID := uuid.New().String()
	now := time.Now()

	return &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(msgID),
			CreDtTm: common.ISODateTime(now),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &[]common.Max35Text{common.Max35Text(req.ID)}[0],
				OrgnlEndToEndId: &[]common.Max35Text{common.Max35Text(req.ID)}[0],
				OrgnlTxId:       &[]common.Max35Text{common.Max35Text(transferRef)}[0],
				TxSts:           &[]pacs_v08.ExternalPaymentTransactionStatus1Code{pacs_v08.ExternalPaymentTransactionStatus1Code(status)}[0],
			},
		},
	}
}

// targetCurrencyOf extracts the quote currency from a BASE/QUOTE pair.
func targetCurrencyOf(pair string) string {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
