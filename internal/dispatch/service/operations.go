package service

import (
	"context"
	"strings"
	"time"

	adomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/domain"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/templates"
)

// OrderConfirmation confirms an order to its buyer and sends the
// operational copy.
func (s *Service) OrderConfirmation(ctx context.Context, caller dd.Caller, req dd.OrderConfirmationRequest) (dd.Result, error) {
	req.Recipient = normalizeEmail(req.Recipient)
	corr := req.CorrelationID
	if strings.TrimSpace(corr) == "" {
		corr = req.OrderID
	}
	order := orderData(req.OrderID, req.Source, req.Recipient, req.OrderSnapshot)
	return s.dispatch(ctx, &plan{
		typ:           dd.TypeOrderConfirmation,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		recipient:     req.Recipient,
		correlationID: corr,
		data:          order,
		ops:           &opsCopy{kind: templates.KindOrderOps, data: order},
	})
}

// HandleOrderCreated runs the order confirmation for an order-created
// event. Business orders are addressed through their account record.
func (s *Service) HandleOrderCreated(ctx context.Context, ev dd.OrderCreatedEvent) (dd.Result, error) {
	var recipient, name, address string
	if ev.CustomerInfo != nil {
		recipient = normalizeEmail(ev.CustomerInfo.Email)
		name, address = ev.CustomerInfo.Name, ev.CustomerInfo.Address
	}
	snapshot := dd.OrderSnapshot{
		OrderNumber:     ev.OrderNumber,
		CustomerName:    name,
		Items:           ev.Items,
		Total:           ev.Total,
		Currency:        ev.Currency,
		ShippingAddress: address,
	}
	p := &plan{
		typ:           dd.TypeOrderConfirmation,
		origin:        dd.OriginEvent,
		caller:        dd.SystemCaller,
		payload:       &ev,
		recipient:     recipient,
		correlationID: ev.OrderNumber,
		check: func() error {
			if recipient == "" && strings.TrimSpace(ev.AccountID) == "" {
				return errs.E(errs.InvalidArgument, "order event has neither customerInfo.email nor accountId")
			}
			return nil
		},
	}
	p.prepare = func(ctx context.Context, p *plan) (bool, error) {
		if p.recipient == "" {
			acc, err := s.loadAccount(ctx, adomain.KindBusinessUser, ev.AccountID)
			if err != nil {
				return false, err
			}
			p.recipient = acc.Email
			if snapshot.CustomerName == "" {
				snapshot.CustomerName = acc.Name
			}
		}
		order := orderData(ev.OrderNumber, ev.Source, p.recipient, snapshot)
		p.data = order
		p.ops = &opsCopy{kind: templates.KindOrderOps, data: order}
		return false, nil
	}
	return s.dispatch(ctx, p)
}

func orderData(orderID, source, recipient string, snap dd.OrderSnapshot) templates.Order {
	number := snap.OrderNumber
	if number == "" {
		number = orderID
	}
	items := make([]templates.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, templates.OrderItem{Name: it.Name, SKU: it.SKU, Quantity: it.Quantity, UnitPrice: it.Price})
	}
	currency := snap.Currency
	if currency == "" {
		currency = "SEK"
	}
	return templates.Order{
		OrderNumber:     number,
		Source:          source,
		CustomerName:    snap.CustomerName,
		CustomerEmail:   recipient,
		Items:           items,
		Total:           snap.Total,
		Currency:        currency,
		ShippingAddress: snap.ShippingAddress,
	}
}

func (s *Service) OrderStatusChange(ctx context.Context, caller dd.Caller, req dd.OrderStatusRequest) (dd.Result, error) {
	req.Recipient = normalizeEmail(req.Recipient)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	return s.dispatch(ctx, &plan{
		typ:           dd.TypeOrderStatusChange,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		recipient:     req.Recipient,
		correlationID: req.CorrelationID,
		data: templates.StatusChange{
			OrderNumber:    req.OrderID,
			CustomerName:   req.CustomerName,
			Status:         req.Status,
			TrackingNumber: req.TrackingNumber,
			Note:           req.Note,
		},
	})
}

func (s *Service) Welcome(ctx context.Context, caller dd.Caller, req dd.WelcomeRequest) (dd.Result, error) {
	req.Email = normalizeEmail(req.Email)
	return s.dispatch(ctx, &plan{
		typ:           dd.TypeWelcome,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		recipient:     req.Email,
		correlationID: req.CorrelationID,
		data:          templates.Welcome{Name: strings.TrimSpace(req.Name), LoginURL: s.opts.PublicBaseURL + "/login"},
	})
}

// PasswordReset mails a one-time code to a known login. Unknown addresses
// get the same response without a send, and the result never carries the
// message id or locale.
func (s *Service) PasswordReset(ctx context.Context, caller dd.Caller, req dd.PasswordResetRequest) (dd.Result, error) {
	req.Email = normalizeEmail(req.Email)
	return s.dispatch(ctx, &plan{
		typ:           dd.TypePasswordReset,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		recipient:     req.Email,
		correlationID: req.CorrelationID,
		prepare: func(ctx context.Context, p *plan) (bool, error) {
			known, err := s.Accounts.HasLogin(ctx, p.recipient)
			if err != nil {
				return false, errs.Wrap(errs.Internal, err, "lookup account")
			}
			if !known {
				s.log.Info().Str("type", string(dd.TypePasswordReset)).Msg("password reset for unknown address; nothing sent")
				return true, nil
			}
			code, err := s.newCode()
			if err != nil {
				return false, errs.Wrap(errs.Internal, err, "generate reset code")
			}
			p.data = templates.PasswordReset{
				Code:             code,
				ExpiresInMinutes: int(s.opts.ResetCodeTTL / time.Minute),
				ResetURL:         s.opts.PublicBaseURL + "/reset-password",
			}
			p.audit = func(ctx context.Context, at time.Time) error {
				return s.Accounts.StoreResetCode(ctx, p.recipient, code, at.Add(s.opts.ResetCodeTTL))
			}
			return false, nil
		},
		finish: func(res *dd.Result) {
			res.Locale, res.MessageID = "", ""
		},
	})
}

func (s *Service) AffiliateCredentials(ctx context.Context, caller dd.Caller, req dd.CredentialsRequest) (dd.Result, error) {
	return s.credentials(ctx, dd.TypeAffiliateCredentials, adomain.KindAffiliate, caller, req)
}

// CustomerCredentials issues credentials to a business customer.
func (s *Service) CustomerCredentials(ctx context.Context, caller dd.Caller, req dd.CredentialsRequest) (dd.Result, error) {
	return s.credentials(ctx, dd.TypeCustomerCredentials, adomain.KindBusinessUser, caller, req)
}

// credentials mails login details for the target record. A new login gets
// a temporary password; an existing login is only told about its access.
// The login and the record's flags are written after the send.
func (s *Service) credentials(ctx context.Context, typ dd.Type, kind adomain.Kind, caller dd.Caller, req dd.CredentialsRequest) (dd.Result, error) {
	var existing bool
	return s.dispatch(ctx, &plan{
		typ:           typ,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		correlationID: req.CorrelationID,
		prepare: func(ctx context.Context, p *plan) (bool, error) {
			acc, err := s.loadAccount(ctx, kind, req.TargetAccountID)
			if err != nil {
				return false, err
			}
			p.recipient = acc.Email
			existing, err = s.Accounts.HasLogin(ctx, acc.Email)
			if err != nil {
				return false, errs.Wrap(errs.Internal, err, "lookup login")
			}
			var password, hash string
			if !existing {
				if password, err = s.newPassword(); err != nil {
					return false, errs.Wrap(errs.Internal, err, "generate password")
				}
				if hash, err = s.hash(password); err != nil {
					return false, errs.Wrap(errs.Internal, err, "hash password")
				}
			}
			p.data = templates.Credentials{
				Name:              acc.Name,
				Email:             acc.Email,
				TemporaryPassword: password,
				ExistingAccount:   existing,
				AffiliateCode:     acc.AffiliateCode,
				LoginURL:          s.opts.PublicBaseURL + "/login",
			}
			p.audit = func(ctx context.Context, at time.Time) error {
				return s.Accounts.RecordCredentialsIssued(ctx, adomain.Issued{Account: acc, PasswordHash: hash, At: at})
			}
			return false, nil
		},
		finish: func(res *dd.Result) {
			v := existing
			res.ExistingAccount = &v
		},
	})
}

// AffiliateApplication acknowledges an affiliate application and notifies
// the operational recipients.
func (s *Service) AffiliateApplication(ctx context.Context, caller dd.Caller, req dd.ApplicationRequest) (dd.Result, error) {
	req.Email = normalizeEmail(req.Email)
	data := templates.Application{Name: strings.TrimSpace(req.Name), Email: req.Email, ApplicationID: req.ApplicationID}
	return s.dispatch(ctx, &plan{
		typ:           dd.TypeAffiliateApplication,
		origin:        dd.OriginDirect,
		caller:        caller,
		payload:       &req,
		recipient:     req.Email,
		correlationID: req.CorrelationID,
		data:          data,
		ops:           &opsCopy{kind: templates.KindApplicationOps, data: data},
	})
}
