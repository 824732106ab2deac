package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/matching"
	"mzigo/pricing"
	"mzigo/shipment"
	"mzigo/shipment/lifecycle"
	"mzigo/transporter"
	"mzigo/ussd"
	"mzigo/wallet"
)

// Server wires the HTTP surface to the domain services.
type Server struct {
	cfg          config.Config
	shipments    *lifecycle.Service
	store        lifecycle.Store
	transporters *transporter.Service
	pricer       *pricing.Engine
	matcher      *matching.Engine
	dispatcher   *matching.Dispatcher
	wallets      *wallet.Engine
	sessions     *ussd.Service
	enforcer     *invariant.Engine
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quotes", s.handleQuote)
	mux.HandleFunc("/api/shipments", s.handleCreateShipment)
	mux.HandleFunc("/api/shipments/", s.handleShipment)
	mux.HandleFunc("/api/transporters", s.handleCreateTransporter)
	mux.HandleFunc("/api/transporters/", s.handleTransporter)
	mux.HandleFunc("/api/wallets/", s.handleWallet)
	mux.HandleFunc("/api/offers/", s.handleOffer)
	mux.HandleFunc("/api/ussd", s.handleUSSD)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if state, reason := s.enforcer.State(); state == invariant.StateFrozen {
		writeError(w, http.StatusServiceUnavailable, "engine frozen: "+reason)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type quoteRequest struct {
	OriginCity      string  `json:"originCity"`
	DestinationCity string  `json:"destinationCity"`
	WeightKg        float64 `json:"weightKg"`
	VehicleType     string  `json:"vehicleType"`
	CargoType       string  `json:"cargoType"`
	Backhaul        bool    `json:"backhaul"`
}

type quoteResponse struct {
	DistanceKm   float64 `json:"distanceKm"`
	GrossPrice   int64   `json:"grossPrice"`
	PlatformFee  int64   `json:"platformFee"`
	NetEarnings  int64   `json:"netEarnings"`
	EstimateLow  int64   `json:"estimateLow"`
	EstimateHigh int64   `json:"estimateHigh"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OriginCity == "" || req.DestinationCity == "" || req.WeightKg <= 0 {
		writeError(w, http.StatusBadRequest, "origin, destination and weight are required")
		return
	}

	origin := shipment.Location{City: req.OriginCity}
	dest := shipment.Location{City: req.DestinationCity}
	vehicle := shipment.VehicleType(req.VehicleType)
	bd := s.pricer.Quote(origin, dest, req.WeightKg, vehicle, shipment.CargoType(req.CargoType), req.Backhaul)
	low, high := s.pricer.QuickEstimate(origin, dest, req.WeightKg, vehicle)

	writeJSON(w, http.StatusOK, quoteResponse{
		DistanceKm:   bd.DistanceKm,
		GrossPrice:   bd.GrossPrice,
		PlatformFee:  bd.PlatformFee,
		NetEarnings:  bd.NetEarnings,
		EstimateLow:  low,
		EstimateHigh: high,
	})
}

type createShipmentRequest struct {
	ShipperID        string  `json:"shipperId"`
	OriginCity       string  `json:"originCity"`
	DestinationCity  string  `json:"destinationCity"`
	CargoType        string  `json:"cargoType"`
	WeightKg         float64 `json:"weightKg"`
	VehicleType      string  `json:"vehicleType"`
	PriceMWK         int64   `json:"priceMwk"`
	PaymentMethod    string  `json:"paymentMethod"`
	CashVerified     bool    `json:"cashVerified"`
	SeasonalCategory string  `json:"seasonalCategory"`
}

type shipmentResponse struct {
	ID              string  `json:"id"`
	ShipperID       string  `json:"shipperId"`
	TransporterID   string  `json:"transporterId,omitempty"`
	OriginCity      string  `json:"originCity"`
	DestinationCity string  `json:"destinationCity"`
	CargoType       string  `json:"cargoType"`
	WeightKg        float64 `json:"weightKg"`
	VehicleType     string  `json:"vehicleType"`
	PriceMWK        int64   `json:"priceMwk"`
	Status          string  `json:"status"`
	IsReviewed      bool    `json:"isReviewed"`
	CreatedAt       string  `json:"createdAt"`
}

func toShipmentResponse(sh shipment.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:              sh.ID,
		ShipperID:       sh.ShipperID,
		TransporterID:   sh.TransporterID,
		OriginCity:      sh.Origin.City,
		DestinationCity: sh.Destination.City,
		CargoType:       string(sh.CargoType),
		WeightKg:        sh.WeightKg,
		VehicleType:     string(sh.RequiredVehicleType),
		PriceMWK:        sh.PriceMWK,
		Status:          string(sh.Status),
		IsReviewed:      sh.IsReviewed,
		CreatedAt:       sh.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sh, err := s.shipments.Post(r.Context(), lifecycle.PostParams{
		ShipperID:           req.ShipperID,
		Origin:              shipment.Location{City: req.OriginCity},
		Destination:         shipment.Location{City: req.DestinationCity},
		CargoType:           shipment.CargoType(req.CargoType),
		WeightKg:            req.WeightKg,
		RequiredVehicleType: shipment.VehicleType(req.VehicleType),
		PriceMWK:            req.PriceMWK,
		PaymentMethod:       shipment.PaymentMethod(req.PaymentMethod),
		CashVerified:        req.CashVerified,
		SeasonalCategory:    req.SeasonalCategory,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShipmentResponse(sh))
}

// handleShipment serves /api/shipments/{id} and its action sub-paths:
// transition, review, confirm-delivery, cancel, dispatch, matches.
func (s *Server) handleShipment(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/shipments/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing shipment id")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sh, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShipmentResponse(sh))
		return
	}

	action := parts[1]
	if action == "matches" {
		s.handleMatches(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "transition":
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sh, err := s.shipments.Transition(r.Context(), id, shipment.Status(body.Status))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShipmentResponse(sh))
	case "review":
		sh, err := s.shipments.MarkReviewed(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShipmentResponse(sh))
	case "confirm-delivery":
		sh, err := s.shipments.ConfirmDelivery(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShipmentResponse(sh))
	case "cancel":
		sh, err := s.shipments.Cancel(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShipmentResponse(sh))
	case "dispatch":
		sh, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		offers, err := s.dispatcher.AutoDispatchShipment(r.Context(), sh)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOfferResponses(offers))
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

type matchResponse struct {
	TransporterID string `json:"transporterId"`
	Score         int    `json:"score"`
	IsBackhaul    bool   `json:"isBackhaul"`
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sh, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	candidates, err := s.matcher.GetSmartRecommendations(r.Context(), sh, s.cfg.DispatchLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]matchResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, matchResponse{
			TransporterID: c.TransporterID,
			Score:         c.Result.Score,
			IsBackhaul:    c.Result.IsBackhaul,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type offerResponse struct {
	ID            string `json:"id"`
	ShipmentID    string `json:"shipmentId"`
	TransporterID string `json:"transporterId"`
	MatchScore    int    `json:"matchScore"`
	IsBackhaul    bool   `json:"isBackhaul"`
	GrossPrice    int64  `json:"grossPrice"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expiresAt"`
}

func toOfferResponses(offers []matching.LoadOffer) []offerResponse {
	out := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerResponse{
			ID:            o.ID,
			ShipmentID:    o.ShipmentID,
			TransporterID: o.TransporterID,
			MatchScore:    o.MatchScore,
			IsBackhaul:    o.IsBackhaul,
			GrossPrice:    o.Pricing.GrossPrice,
			Status:        string(o.Status),
			ExpiresAt:     o.ExpiresAt.Format(time.RFC3339),
		})
	}
	return out
}

// handleOffer serves /api/offers/{id}/accept and /api/offers/{id}/decline.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/offers/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "expected /api/offers/{id}/{accept|decline}")
		return
	}

	var (
		offer matching.LoadOffer
		err   error
	)
	switch parts[1] {
	case "accept":
		offer, err = s.dispatcher.AcceptOffer(r.Context(), parts[0])
	case "decline":
		offer, err = s.dispatcher.DeclineOffer(r.Context(), parts[0])
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponses([]matching.LoadOffer{offer})[0])
}

type createTransporterRequest struct {
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	PlateNumber      string  `json:"plateNumber"`
	VehicleType      string  `json:"vehicleType"`
	CapacityKg       float64 `json:"capacityKg"`
	City             string  `json:"city"`
	HasRefrigeration bool    `json:"hasRefrigeration"`
}

type transporterResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	PlateNumber string  `json:"plateNumber"`
	VehicleType string  `json:"vehicleType"`
	CapacityKg  float64 `json:"capacityKg"`
	Rating      float64 `json:"rating"`
	IsAvailable bool    `json:"isAvailable"`
	IsActive    bool    `json:"isActive"`
}

func toTransporterResponse(p transporter.Profile) transporterResponse {
	return transporterResponse{
		ID:          p.ID,
		Name:        p.Name,
		Phone:       p.Phone,
		PlateNumber: p.PlateNumber,
		VehicleType: string(p.VehicleType),
		CapacityKg:  p.VehicleCapacityKg,
		Rating:      p.Rating,
		IsAvailable: p.IsAvailable,
		IsActive:    p.IsActive,
	}
}

func (s *Server) handleCreateTransporter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req createTransporterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.transporters.Register(r.Context(), transporter.Profile{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Phone:             req.Phone,
		PlateNumber:       req.PlateNumber,
		VehicleType:       shipment.VehicleType(req.VehicleType),
		VehicleCapacityKg: req.CapacityKg,
		CurrentLocation:   shipment.Location{City: req.City},
		HasRefrigeration:  req.HasRefrigeration,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransporterResponse(p))
}

// handleTransporter serves /api/transporters/{id} and the availability and
// no-show sub-paths.
func (s *Server) handleTransporter(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transporters/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing transporter id")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		p, err := s.transporters.GetByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransporterResponse(p))
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	switch parts[1] {
	case "availability":
		var body struct {
			Available bool `json:"available"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p, err := s.transporters.SetAvailability(r.Context(), id, body.Available)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransporterResponse(p))
	case "no-shows":
		p, err := s.transporters.RecordNoShow(r.Context(), id)
		if err != nil && invariant.ViolatedRule(err) == "" {
			writeDomainError(w, err)
			return
		}
		// A suspension is still a successful record; surface the profile.
		writeJSON(w, http.StatusOK, toTransporterResponse(p))
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

type walletResponse struct {
	UserID           string `json:"userId"`
	AvailableBalance int64  `json:"availableBalance"`
	PendingBalance   int64  `json:"pendingBalance"`
	EscrowBalance    int64  `json:"escrowBalance"`
	TotalEarned      int64  `json:"totalEarned"`
	TotalWithdrawn   int64  `json:"totalWithdrawn"`
}

// handleWallet serves /api/wallets/{user} plus deposits, withdrawals and
// the escrow actions keyed by shipment under /api/wallets/escrows/.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/wallets/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing wallet user id")
		return
	}

	if parts[0] == "escrows" {
		s.handleEscrow(w, r, parts[1:])
		return
	}

	userID := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		wlt, err := s.wallets.GetWallet(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, walletResponse{
			UserID:           wlt.UserID,
			AvailableBalance: wlt.AvailableBalance,
			PendingBalance:   wlt.PendingBalance,
			EscrowBalance:    wlt.EscrowBalance,
			TotalEarned:      wlt.TotalEarned,
			TotalWithdrawn:   wlt.TotalWithdrawn,
		})
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		tx  wallet.Transaction
		err error
	)
	switch parts[1] {
	case "deposits":
		tx, err = s.wallets.Deposit(r.Context(), userID, body.Amount)
	case "withdrawals":
		tx, err = s.wallets.RequestWithdrawal(r.Context(), userID, body.Amount)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"transactionId": tx.ID, "status": string(tx.Status)})
}

type createEscrowRequest struct {
	ShipmentID    string `json:"shipmentId"`
	ShipperID     string `json:"shipperId"`
	TransporterID string `json:"transporterId"`
	GrossAmount   int64  `json:"grossAmount"`
	VehicleType   string `json:"vehicleType"`
	PaymentMethod string `json:"paymentMethod"`
	CashVerified  bool   `json:"cashVerified"`
}

func (s *Server) handleEscrow(w http.ResponseWriter, r *http.Request, parts []string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if len(parts) == 0 || parts[0] == "" {
		var req createEscrowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		hold, err := s.wallets.CreateEscrowHold(r.Context(), wallet.CreateEscrowParams{
			ShipmentID:    req.ShipmentID,
			ShipperID:     req.ShipperID,
			TransporterID: req.TransporterID,
			GrossAmount:   req.GrossAmount,
			VehicleType:   shipment.VehicleType(req.VehicleType),
			PaymentMethod: shipment.PaymentMethod(req.PaymentMethod),
			CashVerified:  req.CashVerified,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"escrowId": hold.ID, "status": string(hold.Status)})
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "expected /api/wallets/escrows/{shipment}/{action}")
		return
	}
	shipmentID := parts[0]

	switch parts[1] {
	case "release":
		var body struct {
			ActualPrice     int64  `json:"actualPrice"`
			ExceptionReason string `json:"exceptionReason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := s.wallets.ReleaseEscrow(r.Context(), shipmentID, body.ActualPrice, body.ExceptionReason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transactionId": tx.ID, "status": string(tx.Status)})
	case "refund":
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := s.wallets.RefundEscrow(r.Context(), shipmentID, body.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transactionId": tx.ID, "status": string(tx.Status)})
	case "dispute":
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		hold, err := s.wallets.OpenDispute(r.Context(), shipmentID, body.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"escrowId": hold.ID, "status": string(hold.Status)})
	case "resolve":
		var body struct {
			Outcome string `json:"outcome"`
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := s.wallets.ResolveDispute(r.Context(), shipmentID, wallet.DisputeOutcome(body.Outcome), body.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transactionId": tx.ID, "status": string(tx.Status)})
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

type ussdRequest struct {
	SessionID string `json:"sessionId"`
	Phone     string `json:"phone"`
	Input     string `json:"input"`
	Menu      string `json:"menu"`
}

type ussdResponse struct {
	SessionID string `json:"sessionId"`
	Menu      string `json:"menu"`
	ExpiresAt string `json:"expiresAt"`
}

// handleUSSD is the gateway callback: no session id starts a session, an
// existing id advances it with the subscriber's input.
func (s *Server) handleUSSD(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req ussdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		sess ussd.Session
		err  error
	)
	if req.SessionID == "" {
		sess, err = s.sessions.Start(r.Context(), req.Phone, s.cfg.USSDSessionMinTTL)
	} else {
		sess, err = s.sessions.Advance(r.Context(), req.SessionID, req.Input, req.Menu)
	}
	if err != nil {
		switch {
		case errors.Is(err, ussd.ErrSessionNotFound), errors.Is(err, ussd.ErrSessionExpired):
			writeError(w, http.StatusGone, err.Error())
		default:
			writeDomainError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, ussdResponse{
		SessionID: sess.ID,
		Menu:      sess.Menu,
		ExpiresAt: sess.ExpiresAt.Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinels and invariant failures onto HTTP
// statuses. Unknown errors stay opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	var violation *invariant.ViolationError
	var frozen *invariant.FrozenError
	var compromised *invariant.CompromisedError
	switch {
	case errors.As(err, &violation):
		writeError(w, http.StatusUnprocessableEntity, violation.Error())
	case errors.As(err, &frozen), errors.As(err, &compromised):
		writeError(w, http.StatusServiceUnavailable, "platform temporarily unavailable")
	case errors.Is(err, shipment.ErrNotFound),
		errors.Is(err, transporter.ErrNotFound),
		errors.Is(err, wallet.ErrNoEscrow),
		errors.Is(err, wallet.ErrNoHeldEscrow),
		errors.Is(err, wallet.ErrTransactionNotFound),
		errors.Is(err, matching.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrEscrowExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrBelowMinimumWithdrawal),
		errors.Is(err, wallet.ErrEscrowNotDisputed),
		errors.Is(err, matching.ErrOfferClosed),
		errors.Is(err, matching.ErrOfferExpired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
