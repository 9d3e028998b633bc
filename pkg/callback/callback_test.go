package callback_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/jarcoal/httpmock"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/target365/sdk-go/internal/authentication"
	"github.com/target365/sdk-go/mocks"
	"github.com/target365/sdk-go/pkg/callback"
	"github.com/target365/sdk-go/pkg/client"
	"github.com/target365/sdk-go/pkg/keys"
)

const (
	reportURI  = "http://example.com/callbacks/delivery-reports"
	reportBody = `{"correlationId":"c1","transactionId":"t1","sender":"Target365","recipient":"+4798079008","statusCode":"Ok","delivered":true}`
)

var _ = Describe("Callback", func() {
	var (
		ctrl         *gomock.Controller
		mockVerifier *mocks.SignatureVerifier
		e            *echo.Echo
		reports      []*client.DeliveryReport
		messages     []*client.InMessage
		handlerErr   error
	)

	post := func(path, body, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if signature != "" {
			req.Header.Set(client.SignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	register := func(v callback.SignatureVerifier) {
		h := &callback.Handler{
			OnDeliveryReport: func(ctx context.Context, report *client.DeliveryReport) error {
				reports = append(reports, report)
				return handlerErr
			},
			OnInMessage: func(ctx context.Context, message *client.InMessage) error {
				messages = append(messages, message)
				return handlerErr
			},
		}
		h.Register(e.Group("/callbacks"), v)
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockVerifier = mocks.NewSignatureVerifier(ctrl)
		e = echo.New()
		reports, messages, handlerErr = nil, nil, nil
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Context("with a mock verifier", func() {
		BeforeEach(func() {
			register(mockVerifier)
		})

		It("dispatches verified delivery reports", func() {
			mockVerifier.EXPECT().
				VerifySignature(gomock.Any(), http.MethodPost, reportURI, []byte(reportBody), "k:1:n:c2ln").
				Return(nil)
			rec := post("/callbacks/delivery-reports", reportBody, "k:1:n:c2ln")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].TransactionID).To(Equal("t1"))
			Expect(*reports[0].Delivered).To(BeTrue())
		})

		It("dispatches in-messages", func() {
			mockVerifier.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			rec := post("/callbacks/in-messages", `{"transactionId":"i1","content":"Hello","isStopMessage":false}`, "k:1:n:c2ln")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Content).To(Equal("Hello"))
		})

		It("rejects invalid signatures", func() {
			mockVerifier.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "").
				Return(authentication.ErrMissingSignature)
			rec := post("/callbacks/delivery-reports", reportBody, "")
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(reports).To(BeEmpty())
		})

		It("reports key lookup failures as bad gateway", func() {
			mockVerifier.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(fmt.Errorf("fetching public key k: %w", &client.HttpError{Code: http.StatusServiceUnavailable}))
			rec := post("/callbacks/delivery-reports", reportBody, "k:1:n:c2ln")
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(reports).To(BeEmpty())
		})

		It("rejects malformed bodies", func() {
			mockVerifier.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			rec := post("/callbacks/delivery-reports", "not json", "k:1:n:c2ln")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports handler failures", func() {
			handlerErr = errors.New("database unavailable")
			mockVerifier.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			rec := post("/callbacks/delivery-reports", reportBody, "k:1:n:c2ln")
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	It("leaves routes without callbacks unregistered", func() {
		h := &callback.Handler{OnInMessage: func(context.Context, *client.InMessage) error { return nil }}
		h.Register(e, mockVerifier)
		rec := post("/delivery-reports", reportBody, "k:1:n:c2ln")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Context("with a client", func() {
		const baseURL = "https://test.target365.io/"
		var serverSigner *authentication.Signer

		BeforeEach(func() {
			httpmock.Activate()
			DeferCleanup(httpmock.DeactivateAndReset)

			serverKey, err := keys.GenerateECPrivateKey()
			Expect(err).NotTo(HaveOccurred())
			serverSigner, err = authentication.NewSigner("server-key", serverKey)
			Expect(err).NotTo(HaveOccurred())
			der, err := keys.EncodePublicKey(serverKey.PublicKey())
			Expect(err).NotTo(HaveOccurred())
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/server/public-keys/server-key",
				httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
					"name":            "server-key",
					"publicKeyString": base64.StdEncoding.EncodeToString(der),
					"signAlgo":        "ECDsaP256",
					"hashAlgo":        "SHA256",
				}))

			clientKey, err := keys.GenerateECPrivateKey()
			Expect(err).NotTo(HaveOccurred())
			c, err := client.New(baseURL, "client-key", clientKey)
			Expect(err).NotTo(HaveOccurred())
			register(c)
		})

		It("accepts requests signed by the server", func() {
			signature, err := serverSigner.Sign(http.MethodPost, reportURI, []byte(reportBody))
			Expect(err).NotTo(HaveOccurred())
			rec := post("/callbacks/delivery-reports", reportBody, signature)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(reports).To(HaveLen(1))
		})

		It("rejects requests signed for another URI", func() {
			signature, err := serverSigner.Sign(http.MethodPost, "http://example.com/callbacks/in-messages", []byte(reportBody))
			Expect(err).NotTo(HaveOccurred())
			rec := post("/callbacks/delivery-reports", reportBody, signature)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(reports).To(BeEmpty())
		})
	})
})
