package profilepictures

const (
	LargeSize = 700
	SmallSize = 70
)

// LargeKey is the object key of the 700px variant.
func LargeKey(traineeID string) string {
	return "images/profile/" + traineeID + "/large.jpg"
}

// SmallKey is the object key of the 70px thumbnail.
func SmallKey(traineeID string) string {
	return "images/profile/" + traineeID + "/small.jpg"
}
