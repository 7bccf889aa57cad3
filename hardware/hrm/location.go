package hrm

type BodySensorLocation uint8

const (
	LocationOther BodySensorLocation = iota
	LocationChest
	LocationWrist
	LocationFinger
	LocationHand
	LocationEarLobe
	LocationFoot
	LocationReserved
)

var locationLabels = [...]string{
	LocationOther:    "Other",
	LocationChest:    "Chest",
	LocationWrist:    "Wrist",
	LocationFinger:   "Finger",
	LocationHand:     "Hand",
	LocationEarLobe:  "Ear Lobe",
	LocationFoot:     "Foot",
	LocationReserved: "Reserved for future use",
}

// DecodeBodySensorLocation is total: codes above Foot are Reserved.
func DecodeBodySensorLocation(b byte) BodySensorLocation {
	if b >= byte(LocationReserved) {
		return LocationReserved
	}
	return BodySensorLocation(b)
}

// BodySensorLocationFromBytes decodes characteristic read value.
// Empty read returns false.
func BodySensorLocationFromBytes(b []byte) (BodySensorLocation, bool) {
	if len(b) == 0 {
		return LocationReserved, false
	}
	return DecodeBodySensorLocation(b[0]), true
}

func (l BodySensorLocation) String() string {
	if int(l) < len(locationLabels) {
		return locationLabels[l]
	}
	return locationLabels[LocationReserved]
}
