package linkverify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/promptkit/internal/ledger"
)

// Classify maps the result of one HTTP check onto a ledger status.
//
// A nil err means the server answered with httpStatus. 2xx and 3xx are valid,
// and so are 401 and 403 since the resource exists behind authentication.
// 408, 429 and 5xx are transient; every other 4xx is invalid. Transport
// errors are transient unless they are clearly permanent: unknown host,
// unsupported scheme and certificate failures are invalid.
func Classify(httpStatus int, err error) ledger.Status {
	if err != nil {
		if permanentTransportError(err) {
			return ledger.StatusInvalid
		}
		return ledger.StatusTransient
	}

	switch {
	case httpStatus >= 200 && httpStatus < 400:
		return ledger.StatusValid
	case httpStatus == http.StatusUnauthorized, httpStatus == http.StatusForbidden:
		return ledger.StatusValid
	case httpStatus == http.StatusRequestTimeout, httpStatus == http.StatusTooManyRequests:
		return ledger.StatusTransient
	case httpStatus >= 500:
		return ledger.StatusTransient
	default:
		return ledger.StatusInvalid
	}
}

func permanentTransportError(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, syscall.ECONNRESET) || stderrors.Is(err, syscall.ECONNREFUSED) {
		return false
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}

	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	if stderrors.As(err, &unknownAuthority) || stderrors.As(err, &hostname) ||
		stderrors.As(err, &invalid) || stderrors.As(err, &verification) {
		return true
	}

	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "unsupported protocol scheme") {
		return true
	}
	return false
}

// describe renders the error text stored in the ledger for a check.
func describe(httpStatus int, err error) string {
	if err != nil {
		return err.Error()
	}
	if httpStatus >= 400 {
		return fmt.Sprintf("HTTP %d %s", httpStatus, http.StatusText(httpStatus))
	}
	return ""
}
