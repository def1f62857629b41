package mysql

// Capability flags exchanged during the handshake (spec §4.3). Negotiated
// capabilities are the bitwise AND of the server's offer and the client's
// request.
//
// https://dev.mysql.com/doc/dev/mysql-server/latest/group__group__cs__capabilities__flags.html
const (
	capLongPassword               uint32 = 0x00000001
	capFoundRows                  uint32 = 0x00000002
	capLongFlag                   uint32 = 0x00000004
	capConnectWithDB              uint32 = 0x00000008
	capNoSchema                   uint32 = 0x00000010
	capCompress                   uint32 = 0x00000020
	capODBC                       uint32 = 0x00000040
	capLocalFiles                 uint32 = 0x00000080
	capIgnoreSpace                uint32 = 0x00000100
	capProtocol41                 uint32 = 0x00000200
	capInteractive                uint32 = 0x00000400
	capSSL                        uint32 = 0x00000800
	capIgnoreSigpipe              uint32 = 0x00001000
	capTransactions               uint32 = 0x00002000
	capReserved                   uint32 = 0x00004000
	capSecureConnection           uint32 = 0x00008000
	capMultiStatements            uint32 = 0x00010000
	capMultiResults                uint32 = 0x00020000
	capPSMultiResults             uint32 = 0x00040000
	capPluginAuth                 uint32 = 0x00080000
	capConnectAttrs               uint32 = 0x00100000
	capPluginAuthLenencClientData uint32 = 0x00200000
	capCanHandleExpiredPasswords  uint32 = 0x00400000
	capSessionTrack               uint32 = 0x00800000
	capDeprecateEOF               uint32 = 0x01000000
	capZstdCompressionAlgorithm   uint32 = 0x02000000
	capRememberOptions            uint32 = 0x80000000

	// defaultClientCapabilities is what this client offers to the server
	// before negotiation trims it down to the server's own support.
	defaultClientCapabilities = capLongPassword | capLongFlag | capConnectWithDB |
		capProtocol41 | capTransactions | capSecureConnection |
		capPluginAuth | capPluginAuthLenencClientData | capConnectAttrs |
		capMultiStatements | capMultiResults | capPSMultiResults
)

// status flags reported in OK/EOF packets.
const (
	statusInTrans            uint16 = 0x0001
	statusAutocommit         uint16 = 0x0002
	statusMoreResultsExists  uint16 = 0x0008
	statusCursorExists       uint16 = 0x0040
	statusLastRowSent        uint16 = 0x0080
)
