package i18n

import (
	"fmt"
	"html"
	"strings"

	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
)

// Client onboarding

func MsgWelcomePending(lang Lang) string {
	return pick(lang,
		"👋 <b>Benvenuto!</b>\n\nLa tua registrazione è in attesa di approvazione.\nRiceverai un messaggio appena un operatore la esaminerà.",
		"👋 <b>Welcome!</b>\n\nYour registration is awaiting approval.\nYou will get a message as soon as an operator reviews it.")
}

func MsgStillPending(lang Lang) string {
	return pick(lang,
		"⏳ La tua registrazione è ancora in attesa di approvazione.",
		"⏳ Your registration is still awaiting approval.")
}

func MsgWelcomeApproved(lang Lang) string {
	return pick(lang,
		"✅ <b>Sei abilitato.</b>\n\nScegli il servizio per cui ti serve un numero:",
		"✅ <b>You are approved.</b>\n\nChoose the service you need a number for:")
}

func MsgAccountDenied(lang Lang) string {
	return pick(lang,
		"🚫 La tua registrazione è stata rifiutata.",
		"🚫 Your registration was denied.")
}

func MsgNotRegistered(lang Lang) string {
	return pick(lang,
		"ℹ️ Non sei ancora registrato. Usa /start per iniziare.",
		"ℹ️ You are not registered yet. Use /start to begin.")
}

func MsgNotApproved(lang Lang) string {
	return pick(lang,
		"⏳ Il tuo account non è ancora approvato, non puoi richiedere numeri.",
		"⏳ Your account is not approved yet, you cannot request numbers.")
}

// Requests

func MsgChooseService(lang Lang) string {
	return pick(lang, "📋 Scegli il servizio:", "📋 Choose the service:")
}

func MsgUnknownService(lang Lang, names []string) string {
	list := html.EscapeString(strings.Join(names, ", "))
	return pick(lang,
		"❓ Servizio sconosciuto. Servizi disponibili: "+list,
		"❓ Unknown service. Available services: "+list)
}

func MsgRequestSubmitted(lang Lang, service string) string {
	s := html.EscapeString(service)
	return pick(lang,
		fmt.Sprintf("📨 Richiesta per <b>%s</b> inviata.\nRiceverai il numero appena approvata.", s),
		fmt.Sprintf("📨 Request for <b>%s</b> sent.\nYou will receive the number once it is approved.", s))
}

func MsgNumberAssigned(lang Lang, service, number string) string {
	s, n := html.EscapeString(service), html.EscapeString(number)
	return pick(lang,
		fmt.Sprintf("📞 <b>Numero assegnato</b>\n\nServizio: <b>%s</b>\nNumero: <code>%s</code>\n\nI codici ricevuti ti verranno inoltrati qui.", s, n),
		fmt.Sprintf("📞 <b>Number assigned</b>\n\nService: <b>%s</b>\nNumber: <code>%s</code>\n\nReceived codes will be forwarded here.", s, n))
}

func MsgRequestDenied(lang Lang, service string) string {
	s := html.EscapeString(service)
	return pick(lang,
		fmt.Sprintf("🚫 La tua richiesta per <b>%s</b> è stata rifiutata.", s),
		fmt.Sprintf("🚫 Your request for <b>%s</b> was denied.", s))
}

func MsgClientApproved(lang Lang) string {
	return pick(lang,
		"✅ <b>Registrazione approvata!</b>\n\nOra puoi richiedere un numero con /request.",
		"✅ <b>Registration approved!</b>\n\nYou can now request a number with /request.")
}

// MsgStatus renders a client's overview, allocations newest first.
func MsgStatus(lang Lang, c *dto.ClientDTO, allocations []*dto.AllocationDTO) string {
	var b strings.Builder
	b.WriteString(pick(lang, "👤 <b>Il tuo stato</b>\n\n", "👤 <b>Your status</b>\n\n"))
	b.WriteString(pick(lang, "Account: ", "Account: "))
	b.WriteString(decisionLabel(lang, c.Status))
	b.WriteString("\n")
	if len(allocations) == 0 {
		b.WriteString(pick(lang, "\nNessun numero assegnato.", "\nNo numbers assigned."))
		return b.String()
	}
	b.WriteString(pick(lang, "\n📞 <b>Numeri</b>\n", "\n📞 <b>Numbers</b>\n"))
	for _, a := range allocations {
		fmt.Fprintf(&b, "\n<code>%s</code> · %s\n   └ %s · %s",
			html.EscapeString(a.Number),
			html.EscapeString(serviceLabel(a)),
			biztime.Format(a.AssignedAt),
			pollStateLabel(lang, a.PollState),
		)
		if a.CodeCount > 0 {
			fmt.Fprintf(&b, pick(lang, " · codici: %d", " · codes: %d"), a.CodeCount)
		}
	}
	return b.String()
}

// MsgHelp lists commands and the service catalog.
func MsgHelp(lang Lang, services []numberrequest.ServiceDefinition, operator bool) string {
	var b strings.Builder
	b.WriteString(pick(lang,
		"ℹ️ <b>Comandi</b>\n\n/start - registrati\n/request - richiedi un numero\n/status - i tuoi numeri\n/help - questo messaggio\n",
		"ℹ️ <b>Commands</b>\n\n/start - register\n/request - request a number\n/status - your numbers\n/help - this message\n"))
	if operator {
		b.WriteString(pick(lang, "/admin - pannello operatore\n", "/admin - operator panel\n"))
	}
	b.WriteString(pick(lang, "\n📋 <b>Servizi</b>\n", "\n📋 <b>Services</b>\n"))
	for _, s := range services {
		fmt.Fprintf(&b, "• %s (<code>%s</code>)\n", html.EscapeString(s.Name), html.EscapeString(s.Code))
	}
	return b.String()
}

func MsgUnknownCommand(lang Lang) string {
	return pick(lang, "❓ Comando non riconosciuto. Usa /help.", "❓ Unknown command. Use /help.")
}

func MsgGenericError(lang Lang) string {
	return pick(lang,
		"❌ Si è verificato un errore, riprova più tardi.",
		"❌ Something went wrong, please try again later.")
}

// Operators

func MsgNotOperator(lang Lang) string {
	return pick(lang, "⛔ Riservato agli operatori.", "⛔ Operators only.")
}

func MsgAdminPanel(lang Lang, balance string) string {
	if balance == "" {
		balance = "n/d"
	}
	b := html.EscapeString(balance)
	return pick(lang,
		fmt.Sprintf("🛠 <b>Pannello operatore</b>\n\nSaldo provider: <b>%s</b>", b),
		fmt.Sprintf("🛠 <b>Operator panel</b>\n\nProvider balance: <b>%s</b>", b))
}

func MsgNewClient(lang Lang, c *dto.ClientDTO) string {
	return pick(lang, "🆕 <b>Nuovo cliente</b>\n\n", "🆕 <b>New client</b>\n\n") + clientLine(c)
}

func MsgNewRequest(lang Lang, r *dto.RequestDTO) string {
	return pick(lang, "📨 <b>Nuova richiesta</b>\n\n", "📨 <b>New request</b>\n\n") + requestLines(lang, r)
}

func MsgUnallocatedRequest(lang Lang, r *dto.RequestDTO) string {
	return pick(lang, "🔁 <b>Richiesta senza numero</b>\n\n", "🔁 <b>Request without number</b>\n\n") + requestLines(lang, r)
}

func MsgClientDecided(lang Lang, c *dto.ClientDTO, approved bool) string {
	head := pick(lang, "🚫 <b>Cliente rifiutato</b>\n\n", "🚫 <b>Client denied</b>\n\n")
	if approved {
		head = pick(lang, "✅ <b>Cliente approvato</b>\n\n", "✅ <b>Client approved</b>\n\n")
	}
	return head + clientLine(c)
}

func MsgRequestDecidedDenied(lang Lang, r *dto.RequestDTO) string {
	return pick(lang, "🚫 <b>Richiesta rifiutata</b>\n\n", "🚫 <b>Request denied</b>\n\n") + requestLines(lang, r)
}

func MsgRequestAllocated(lang Lang, r *dto.RequestDTO, a *dto.AllocationDTO) string {
	head := pick(lang, "📞 <b>Numero assegnato</b>\n\n", "📞 <b>Number assigned</b>\n\n")
	body := ""
	if r != nil {
		body = requestLines(lang, r) + "\n"
	}
	return head + body + fmt.Sprintf(pick(lang, "Numero: <code>%s</code>\nAttivazione: <code>%s</code>", "Number: <code>%s</code>\nActivation: <code>%s</code>"),
		html.EscapeString(a.Number), html.EscapeString(a.ActivationID))
}

func MsgAllocationFailed(lang Lang, r *dto.RequestDTO, reason string) string {
	head := pick(lang,
		"⚠️ <b>Richiesta approvata, nessun numero disponibile</b>\n\n",
		"⚠️ <b>Request approved, no number available</b>\n\n")
	return head + requestLines(lang, r) + "\n" +
		pick(lang, "Motivo: ", "Reason: ") + html.EscapeString(reason)
}

func MsgNothingPending(lang Lang) string {
	return pick(lang, "✨ Nessun elemento in attesa.", "✨ Nothing pending.")
}

func MsgAlreadyDecided(lang Lang) string {
	return pick(lang, "Già deciso da un altro operatore.", "Already decided by another operator.")
}

func MsgNotFound(lang Lang) string {
	return pick(lang, "Elemento non trovato.", "Item not found.")
}

func MsgProviderUnavailable(lang Lang) string {
	return pick(lang, "Provider non disponibile, riprova.", "Provider unavailable, try again.")
}

// Buttons

func BtnApprove(lang Lang) string  { return pick(lang, "✅ Approva", "✅ Approve") }
func BtnDeny(lang Lang) string     { return pick(lang, "🚫 Rifiuta", "🚫 Deny") }
func BtnRetry(lang Lang) string    { return pick(lang, "🔁 Riprova", "🔁 Retry") }
func BtnClients(lang Lang) string  { return pick(lang, "👤 Clienti in attesa", "👤 Pending clients") }
func BtnRequests(lang Lang) string { return pick(lang, "📨 Richieste in attesa", "📨 Pending requests") }
func BtnUnallocated(lang Lang) string {
	return pick(lang, "🔁 Richieste senza numero", "🔁 Requests without number")
}

func clientLine(c *dto.ClientDTO) string {
	if c == nil {
		return "-"
	}
	line := fmt.Sprintf("%s (<code>%d</code>)", html.EscapeString(c.DisplayName), c.PlatformID)
	if c.Username != "" {
		line += " @" + html.EscapeString(c.Username)
	}
	return line
}

func requestLines(lang Lang, r *dto.RequestDTO) string {
	return fmt.Sprintf(pick(lang,
		"Cliente: %s\nServizio: <b>%s</b>\nRichiesta: <code>%s</code>\nData: %s",
		"Client: %s\nService: <b>%s</b>\nRequest: <code>%s</code>\nDate: %s"),
		clientLine(r.Client),
		html.EscapeString(r.Service),
		html.EscapeString(r.SID),
		biztime.Format(r.RequestedAt),
	)
}

func serviceLabel(a *dto.AllocationDTO) string {
	if a.Service != "" {
		return a.Service
	}
	return a.ServiceCode
}

func decisionLabel(lang Lang, status string) string {
	switch status {
	case "approved":
		return pick(lang, "✅ approvato", "✅ approved")
	case "denied":
		return pick(lang, "🚫 rifiutato", "🚫 denied")
	default:
		return pick(lang, "⏳ in attesa", "⏳ pending")
	}
}

func pollStateLabel(lang Lang, state string) string {
	switch state {
	case "waiting":
		return pick(lang, "in attesa di codice", "waiting for code")
	case "delivered":
		return pick(lang, "codice consegnato", "code delivered")
	case "ended":
		return pick(lang, "terminato", "ended")
	case "expired":
		return pick(lang, "scaduto", "expired")
	default:
		return state
	}
}
