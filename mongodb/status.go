package mongodb

import (
	"fmt"

	"github.com/anyswap/CrossChain-Settlement/tokens"
)

// -----------------------------------------------
// request status change graph
// symbol '--->' mean transfer only under checked condition (eg. manual process)
//
// RequestSent -> Delivering -> |- Settled
//                              |- DeliveryFailed ---> Delivering
//                              |- ManualIntervention -> manual
// -----------------------------------------------

// RequestStatus request status
type RequestStatus uint16

// request status values
const (
	RequestSent        RequestStatus = iota // 0
	Delivering                              // 1
	Settled                                 // 2
	DeliveryFailed                          // 3
	ManualIntervention                      // 4

	KeepStatus RequestStatus = 255
)

func (status RequestStatus) String() string {
	switch status {
	case RequestSent:
		return "RequestSent"
	case Delivering:
		return "Delivering"
	case Settled:
		return "Settled"
	case DeliveryFailed:
		return "DeliveryFailed"
	case ManualIntervention:
		return "ManualIntervention"
	case KeepStatus:
		return "KeepStatus"
	default:
		return fmt.Sprintf("unknown request status %d", status)
	}
}

// CanRedeliver can the relay deliver again
func (status RequestStatus) CanRedeliver() bool {
	switch status {
	case RequestSent, Delivering, DeliveryFailed:
		return true
	default:
		return false
	}
}

// GetRequestStatusByDeliveryError get request status by delivery error
func GetRequestStatusByDeliveryError(err error) RequestStatus {
	switch {
	case err == nil:
		return Settled
	case tokens.NeedManualIntervention(err), tokens.IsUserCorrectableError(err):
		return ManualIntervention
	default:
		return DeliveryFailed
	}
}
