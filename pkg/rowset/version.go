package rowset

// Version is the release version of the rowset module.
const Version = "0.1.0"
