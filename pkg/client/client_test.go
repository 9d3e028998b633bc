package client_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/target365/sdk-go/internal/authentication"
	"github.com/target365/sdk-go/mocks"
	"github.com/target365/sdk-go/pkg/client"
	"github.com/target365/sdk-go/pkg/keys"
)

const baseURL = "https://test.target365.io/"

func publicKeyRecord(name string, key keys.KeyMaterial) *authentication.PublicKeyRecord {
	der, err := keys.EncodePublicKey(key)
	Expect(err).NotTo(HaveOccurred())
	return &authentication.PublicKeyRecord{
		Name:            name,
		PublicKeyString: base64.StdEncoding.EncodeToString(der),
		SignAlgo:        string(keys.ECDsaP256),
		HashAlgo:        "SHA256",
	}
}

var _ = Describe("Client", func() {
	var (
		ctrl       *gomock.Controller
		c          *client.Client
		clientKey  *keys.ECPrivateKey
		serverKey  *keys.ECPrivateKey
		mockLookup *mocks.KeyLookup
		verifier   *authentication.Verifier
	)

	// checkSignature asserts that r carries a valid Authorization header from the client key.
	checkSignature := func(r *http.Request) []byte {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
		}
		header := r.Header.Get("Authorization")
		Expect(header).To(HavePrefix("HMAC client-key:"))
		Expect(verifier.Verify(context.Background(), r.Method, r.URL.String(), body, header)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		var err error
		httpmock.Activate()
		ctrl = gomock.NewController(GinkgoT())
		mockLookup = mocks.NewKeyLookup(ctrl)

		clientKey, err = keys.GenerateECPrivateKey()
		Expect(err).NotTo(HaveOccurred())
		serverKey, err = keys.GenerateECPrivateKey()
		Expect(err).NotTo(HaveOccurred())

		mockLookup.EXPECT().FetchPublicKey(gomock.Any(), "client-key").
			Return(publicKeyRecord("client-key", clientKey.PublicKey()), nil).AnyTimes()
		verifier = authentication.NewVerifier(mockLookup, nil)

		c, err = client.New(baseURL, "client-key", clientKey, client.WithUserAgent("test-app/1.0"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			httpmock.DeactivateAndReset()
			ctrl.Finish()
		})
	})

	Context("construction", func() {
		It("rejects plain http", func() {
			_, err := client.New("http://test.target365.io/", "client-key", clientKey)
			Expect(err).To(HaveOccurred())
			_, err = client.New("http://localhost:8080/", "client-key", clientKey, client.WithInsecureBaseURL())
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects short timeouts", func() {
			_, err := client.New(baseURL, "client-key", clientKey, client.WithTimeout(10*time.Second))
			Expect(err).To(HaveOccurred())
			_, err = client.New(baseURL, "client-key", clientKey, client.WithTimeout(client.MinimumTimeout))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects invalid key names", func() {
			_, err := client.New(baseURL, "", clientKey)
			Expect(err).To(HaveOccurred())
			_, err = client.New(baseURL, "a:b", clientKey)
			Expect(err).To(HaveOccurred())
		})

		It("requires a host", func() {
			_, err := client.New("https:///api", "client-key", clientKey)
			Expect(err).To(HaveOccurred())
		})

		It("builds the user agent", func() {
			Expect(c.UserAgent).To(HavePrefix("test-app/1.0 target365-sdk-go/"))
			Expect(c.KeyName()).To(Equal("client-key"))
		})
	})

	Context("ping", func() {
		It("returns the greeting without signing", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/ping",
				func(r *http.Request) (*http.Response, error) {
					Expect(r.Header.Get("Authorization")).To(BeEmpty())
					Expect(r.Header.Get("User-Agent")).To(Equal(c.UserAgent))
					return httpmock.NewJsonResponse(http.StatusOK, "pong")
				})
			Expect(c.Ping(context.Background())).To(Equal("pong"))
		})

		It("resolves endpoints under a base path", func() {
			prefixed, err := client.New("https://test.target365.io/sms", "client-key", clientKey)
			Expect(err).NotTo(HaveOccurred())
			httpmock.RegisterResponder(http.MethodGet, "https://test.target365.io/sms/api/ping",
				httpmock.NewStringResponder(http.StatusOK, `"pong"`))
			Expect(prefixed.Ping(context.Background())).To(Equal("pong"))
		})
	})

	Context("out-messages", func() {
		It("creates a message and returns its transaction ID", func() {
			httpmock.RegisterResponder(http.MethodPost, baseURL+"api/out-messages",
				func(r *http.Request) (*http.Response, error) {
					body := checkSignature(r)
					Expect(r.Header.Get("Content-Type")).To(HavePrefix("application/json"))
					Expect(body).To(MatchJSON(`{
						"sender": "Target365",
						"recipient": "+4798079008",
						"content": "Hello",
						"timeToLive": 120,
						"priority": "Normal",
						"deliveryMode": "AtMostOnce"
					}`))
					rsp := httpmock.NewStringResponse(http.StatusCreated, "")
					rsp.Header.Set("Location", baseURL+"api/out-messages/0f1b2c3d")
					return rsp, nil
				})
			id, err := c.CreateOutMessage(context.Background(), client.NewOutMessage("Target365", "+4798079008", "Hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("0f1b2c3d"))
		})

		It("fails without a Location header", func() {
			httpmock.RegisterResponder(http.MethodPost, baseURL+"api/out-messages",
				httpmock.NewStringResponder(http.StatusCreated, ""))
			_, err := c.CreateOutMessage(context.Background(), client.NewOutMessage("a", "b", "c"))
			Expect(err).To(HaveOccurred())
		})

		It("sends batches", func() {
			httpmock.RegisterResponder(http.MethodPost, baseURL+"api/out-messages/batch",
				func(r *http.Request) (*http.Response, error) {
					var messages []client.OutMessage
					Expect(json.Unmarshal(checkSignature(r), &messages)).To(Succeed())
					Expect(messages).To(HaveLen(2))
					return httpmock.NewStringResponse(http.StatusCreated, ""), nil
				})
			err := c.CreateOutMessageBatch(context.Background(), []*client.OutMessage{
				client.NewOutMessage("a", "+4711111111", "one"),
				client.NewOutMessage("a", "+4722222222", "two"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.CreateOutMessageBatch(context.Background(), nil)).NotTo(Succeed())
		})

		It("gets a message", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/out-messages/abc",
				func(r *http.Request) (*http.Response, error) {
					checkSignature(r)
					return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
						"transactionId": "abc",
						"sender":        "Target365",
						"recipient":     "+4798079008",
						"content":       "Hello",
						"timeToLive":    60,
						"deliveryMode":  "AtLeastOnce",
						"statusCode":    client.StatusSent,
					})
				})
			message, err := c.GetOutMessage(context.Background(), "abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(message).NotTo(BeNil())
			Expect(message.TransactionID).To(Equal("abc"))
			Expect(message.DeliveryMode).To(Equal(client.AtLeastOnce))
			Expect(message.StatusCode).To(Equal(client.StatusSent))
		})

		It("returns nil for unknown messages", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/out-messages/missing",
				httpmock.NewStringResponder(http.StatusNotFound, ""))
			message, err := c.GetOutMessage(context.Background(), "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(message).To(BeNil())
		})

		It("updates and deletes messages", func() {
			httpmock.RegisterResponder(http.MethodPut, baseURL+"api/out-messages/abc",
				func(r *http.Request) (*http.Response, error) {
					Expect(checkSignature(r)).To(ContainSubstring(`"transactionId":"abc"`))
					return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
				})
			httpmock.RegisterResponder(http.MethodDelete, baseURL+"api/out-messages/abc",
				func(r *http.Request) (*http.Response, error) {
					checkSignature(r)
					return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
				})
			message := client.NewOutMessage("a", "b", "c")
			Expect(c.UpdateOutMessage(context.Background(), message)).NotTo(Succeed())
			message.TransactionID = "abc"
			Expect(c.UpdateOutMessage(context.Background(), message)).To(Succeed())
			Expect(c.DeleteOutMessage(context.Background(), "abc")).To(Succeed())
			Expect(c.DeleteOutMessage(context.Background(), "")).NotTo(Succeed())
			Expect(httpmock.GetTotalCallCount()).To(Equal(2))
		})

		It("reports server error messages", func() {
			httpmock.RegisterResponder(http.MethodDelete, baseURL+"api/out-messages/abc",
				httpmock.NewStringResponder(http.StatusBadRequest, `{"message":"Message already sent"}`))
			err := c.DeleteOutMessage(context.Background(), "abc")
			var httpErr *client.HttpError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
			Expect(httpErr.Code).To(Equal(http.StatusBadRequest))
			Expect(httpErr.Message).To(Equal("Message already sent"))
			Expect(err.Error()).To(Equal("Bad Request: Message already sent"))
			Expect(httpErr.Temporary()).To(BeFalse())
		})

		It("falls back to the status text", func() {
			httpmock.RegisterResponder(http.MethodDelete, baseURL+"api/out-messages/abc",
				httpmock.NewStringResponder(http.StatusServiceUnavailable, "<html>down</html>"))
			err := c.DeleteOutMessage(context.Background(), "abc")
			Expect(err).To(MatchError("Service Unavailable"))
			var httpErr *client.HttpError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
			Expect(httpErr.Temporary()).To(BeTrue())
		})
	})

	Context("in-messages", func() {
		It("gets a message", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/in-messages/NO-0000/xyz",
				func(r *http.Request) (*http.Response, error) {
					checkSignature(r)
					return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
						"transactionId": "xyz",
						"sender":        "+4798079008",
						"recipient":     "0000",
						"content":       "STOP",
						"isStopMessage": true,
					})
				})
			message, err := c.GetInMessage(context.Background(), "NO-0000", "xyz")
			Expect(err).NotTo(HaveOccurred())
			Expect(message.IsStopMessage).To(BeTrue())

			_, err = c.GetInMessage(context.Background(), "", "xyz")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("public keys", func() {
		It("lists client keys", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/client/public-keys",
				func(r *http.Request) (*http.Response, error) {
					checkSignature(r)
					return httpmock.NewJsonResponse(http.StatusOK, []*authentication.PublicKeyRecord{
						publicKeyRecord("client-key", clientKey.PublicKey()),
					})
				})
			records, err := c.GetClientPublicKeys(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Name).To(Equal("client-key"))
		})

		It("returns nil for unknown keys", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/client/public-keys/nope",
				httpmock.NewStringResponder(http.StatusNotFound, ""))
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/server/public-keys/nope",
				httpmock.NewStringResponder(http.StatusNotFound, ""))
			Expect(c.GetClientPublicKey(context.Background(), "nope")).To(BeNil())
			Expect(c.GetServerPublicKey(context.Background(), "nope")).To(BeNil())
		})
	})

	Context("callback verification", func() {
		var serverSigner *authentication.Signer

		BeforeEach(func() {
			var err error
			serverSigner, err = authentication.NewSigner("server-key", serverKey)
			Expect(err).NotTo(HaveOccurred())
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/server/public-keys/server-key",
				func(r *http.Request) (*http.Response, error) {
					checkSignature(r)
					return httpmock.NewJsonResponse(http.StatusOK, publicKeyRecord("server-key", serverKey.PublicKey()))
				})
		})

		callback := func(body string) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/callbacks/delivery-reports", strings.NewReader(body))
			req.Host = "hooks.example.com"
			req.Header.Set("X-Forwarded-Proto", "https")
			header, err := serverSigner.Sign(http.MethodPost, "https://hooks.example.com/callbacks/delivery-reports", []byte(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(client.SignatureHeader, header)
			return req
		}

		It("accepts signed requests and caches the server key", func() {
			for i := 0; i < 3; i++ {
				req := callback(`{"transactionId":"abc","statusCode":"Ok"}`)
				Expect(c.VerifyRequest(context.Background(), req)).To(Succeed())
				body, err := io.ReadAll(req.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(body).To(MatchJSON(`{"transactionId":"abc","statusCode":"Ok"}`))
			}
			Expect(httpmock.GetTotalCallCount()).To(Equal(1))
			Expect(c.PublicKeyCache().Names()).To(ConsistOf("server-key"))
		})

		It("rejects modified bodies", func() {
			req := callback(`{"transactionId":"abc"}`)
			req.Body = io.NopCloser(strings.NewReader(`{"transactionId":"abd"}`))
			err := c.VerifyRequest(context.Background(), req)
			Expect(err).To(MatchError(authentication.ErrSignatureMismatch))
			Expect(client.IsAuthenticationError(err)).To(BeTrue())
		})

		It("rejects missing signatures", func() {
			req := callback("{}")
			req.Header.Del(client.SignatureHeader)
			Expect(c.VerifyRequest(context.Background(), req)).To(MatchError(authentication.ErrMissingSignature))
		})

		It("distinguishes lookup failures", func() {
			httpmock.RegisterResponder(http.MethodGet, baseURL+"api/server/public-keys/server-key",
				httpmock.NewStringResponder(http.StatusInternalServerError, `{"message":"boom"}`))
			err := c.VerifyRequest(context.Background(), callback("{}"))
			Expect(err).To(HaveOccurred())
			Expect(client.IsAuthenticationError(err)).To(BeFalse())
			var httpErr *client.HttpError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
		})

		It("reconstructs request URIs", func() {
			req := httptest.NewRequest(http.MethodPost, "/a/b?c=d", nil)
			req.Host = "hooks.example.com"
			Expect(client.RequestURI(req)).To(Equal("http://hooks.example.com/a/b?c=d"))
			req.Header.Set("X-Forwarded-Proto", "https, http")
			Expect(client.RequestURI(req)).To(Equal("https://hooks.example.com/a/b?c=d"))
		})
	})
})
